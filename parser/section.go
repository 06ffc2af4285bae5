package parser

const (
	maxCountLen = 64

	// maxPrealloc bounds the capacity reserved up front for a list. Counts
	// come from the input, so larger lists grow as records actually arrive.
	maxPrealloc = 1024
)

// list describes one "<Noun>s found: N" list and its "<Noun> i: " items.
type list struct {
	noun   string
	header string
	sep    string
	item   string
}

var (
	definesList   = list{noun: "Defines", header: "\nDefines found: ", sep: "\n", item: "Define "}
	structsList   = list{noun: "Structs", header: "\nStructs found: ", sep: "\n", item: "Struct "}
	aliasesList   = list{noun: "Aliases", header: "\nAliases found: ", sep: "\n", item: "Alias "}
	enumsList     = list{noun: "Enums", header: "\nEnums found: ", sep: "\n", item: "Enum "}
	callbacksList = list{noun: "Callbacks", header: "\nCallbacks found: ", sep: "\n", item: "Callback "}
	functionsList = list{noun: "Functions", header: "\nFunctions found: ", sep: "\n", item: "Function "}

	fieldsList = list{noun: "Fields", header: "  Fields found: ", item: "    Field "}
	valuesList = list{noun: "Values", header: "  Values found: ", item: "    Value "}
	paramsList = list{noun: "Params", header: "  Params found: ", item: "    Param "}
)

// parseList reads a counted list of records. If record i fails, records
// 1..i-1 are released newest first; record i has already released itself.
func parseList[T any](s *state, l list, decode func(*state) (T, error), release func(Allocator, *T)) ([]T, error) {
	if err := s.c.expect(l.header); err != nil {
		return nil, err
	}
	count, err := s.c.readCount(maxCountLen)
	if err != nil {
		return nil, err
	}
	if err := s.c.expect(l.sep); err != nil {
		return nil, err
	}

	sc := new(scope)
	defer sc.close()

	items := make([]T, 0, min(count, maxPrealloc))
	for i := 1; i <= count; i++ {
		if err := s.c.expect(l.item); err != nil {
			return nil, err
		}
		if err := s.c.expectIndex(i); err != nil {
			return nil, err
		}

		rec, err := decode(s)
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
		sc.onRollback(func() { release(s.alloc, &rec) })
	}

	sc.commit()
	return items, nil
}
