package wasm

// Hand-assembled scorer modules. Each exports "memory" (1 page) and
// "evaluate" (func (param i32 i32) (result f64)) unless noted.

var (
	header = []byte{
		0x00, 0x61, 0x73, 0x6d, // magic
		0x01, 0x00, 0x00, 0x00, // version
		// type section: (func (param i32 i32) (result f64))
		0x01, 0x07, 0x01, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7c,
		// function section: one function of type 0
		0x03, 0x02, 0x01, 0x00,
		// memory section: min 1 page
		0x05, 0x03, 0x01, 0x00, 0x01,
	}

	exportBoth = []byte{
		0x07, 0x15, 0x02,
		0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
		0x08, 'e', 'v', 'a', 'l', 'u', 'a', 't', 'e', 0x00, 0x00,
	}

	exportMemoryOnly = []byte{
		0x07, 0x0a, 0x01,
		0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
	}

	// f64.const 0.75
	codeConstant = []byte{
		0x0a, 0x0d, 0x01, 0x0b, 0x00,
		0x44, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xe8, 0x3f,
		0x0b,
	}

	// f64.convert_i32_u(len) / 100.0
	codeLength = []byte{
		0x0a, 0x11, 0x01, 0x0f, 0x00,
		0x20, 0x01, 0xb8,
		0x44, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x59, 0x40,
		0xa3,
		0x0b,
	}

	// unreachable
	codeTrap = []byte{
		0x0a, 0x05, 0x01, 0x03, 0x00, 0x00, 0x0b,
	}

	// loop br 0 end, never returns
	codeLoop = []byte{
		0x0a, 0x12, 0x01, 0x10, 0x00,
		0x03, 0x40, 0x0c, 0x00, 0x0b,
		0x44, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x0b,
	}
)

func module(export, code []byte) []byte {
	out := append([]byte{}, header...)
	out = append(out, export...)
	return append(out, code...)
}

// ConstantScorer returns 0.75 for any input.
func ConstantScorer() []byte { return module(exportBoth, codeConstant) }

// LengthScorer returns the input length divided by 100.
func LengthScorer() []byte { return module(exportBoth, codeLength) }

func trapScorer() []byte       { return module(exportBoth, codeTrap) }
func loopScorer() []byte       { return module(exportBoth, codeLoop) }
func unexportedScorer() []byte { return module(exportMemoryOnly, codeConstant) }
