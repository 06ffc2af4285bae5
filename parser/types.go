package parser

// API is the decoded form of an API dump. Every sequence keeps dump order, which
// is also declaration order in the source header.
type API struct {
	Defines   []Define   `yaml:"defines"`
	Structs   []Struct   `yaml:"structs"`
	Aliases   []Alias    `yaml:"aliases"`
	Enums     []Enum     `yaml:"enums"`
	Callbacks []Callback `yaml:"callbacks"`
	Functions []Function `yaml:"functions"`

	alloc Allocator
}

type Define struct {
	Name        string     `yaml:"name"`
	Type        DefineType `yaml:"type"`
	Value       string     `yaml:"value"`
	Description string     `yaml:"description"`
}

type Field struct {
	Type        string `yaml:"type"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type Struct struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Fields      []Field `yaml:"fields"`
}

// Alias is a type-to-type rename.
type Alias struct {
	Type        string `yaml:"type"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type EnumValue struct {
	Name        string `yaml:"name"`
	Value       string `yaml:"value"`
	Description string `yaml:"description"`
}

type Enum struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Values      []EnumValue `yaml:"values"`
}

type Param struct {
	Type string `yaml:"type"`
	Name string `yaml:"name"`
}

// Callback is a function pointer typedef.
type Callback struct {
	Name        string  `yaml:"name"`
	ReturnType  string  `yaml:"return_type"`
	Description string  `yaml:"description"`
	Params      []Param `yaml:"params"`
}

type Function struct {
	Name        string  `yaml:"name"`
	ReturnType  string  `yaml:"return_type"`
	Description string  `yaml:"description"`
	Params      []Param `yaml:"params"`
}
