package synth

// builtin returns the stock Descriptor set for every built-in class:
// NOT, AND2, OR2, XOR2, the unary reductions, the comparators, the
// shifters, adder/subtracter/multiplier, mux, flop, slice, concat. Each
// corresponds to a cond combinator (cond.Not, cond.And, ..., cond.Mux),
// cond.Flop, or an lval operation (the unary reductions, shifts, slice
// and concat); the descriptor just names the cell and port mapping an
// emitter should use when it recognizes that operation's shape.
func builtin() map[string]*Descriptor {
	twoInput := func(prim string) *Descriptor {
		return &Descriptor{
			Primitive: prim,
			PortMap: map[string]PortRule{
				"a": literal("A"),
				"b": literal("B"),
				"y": literal("Y"),
			},
			Directions: map[string]Direction{
				"a": DirInput, "b": DirInput, "y": DirOutput,
			},
			DeriveParams: widthParams("y"),
		}
	}
	unary := func(prim string) *Descriptor {
		return &Descriptor{
			Primitive: prim,
			PortMap: map[string]PortRule{
				"a": literal("A"),
				"y": literal("Y"),
			},
			Directions: map[string]Direction{
				"a": DirInput, "y": DirOutput,
			},
			DeriveParams: widthParams("a"),
		}
	}

	return map[string]*Descriptor{
		"NOT":  unary("not_cell"),
		"AND2": twoInput("and2_cell"),
		"OR2":  twoInput("or2_cell"),
		"XOR2": twoInput("xor2_cell"),

		"UAND": unary("uand_cell"),
		"UOR":  unary("uor_cell"),
		"UXOR": unary("uxor_cell"),

		"EQ":  twoInput("eq_cell"),
		"NEQ": twoInput("neq_cell"),
		"LT":  twoInput("lt_cell"),
		"LE":  twoInput("le_cell"),
		"GT":  twoInput("gt_cell"),
		"GE":  twoInput("ge_cell"),

		"SHL": twoInput("shl_cell"),
		"SHR": twoInput("shr_cell"),
		"SRA": twoInput("sra_cell"),

		"ADD": twoInput("add_cell"),
		"SUB": twoInput("sub_cell"),
		"MUL": twoInput("mul_cell"),

		"MUX": {
			Primitive: "mux_cell",
			PortMap: map[string]PortRule{
				"sel": literal("S"),
				"a":   literal("A"),
				"b":   literal("B"),
				"y":   literal("Y"),
			},
			Directions: map[string]Direction{
				"sel": DirInput, "a": DirInput, "b": DirInput, "y": DirOutput,
			},
			DeriveParams: widthParams("y"),
		},

		"FLOP": {
			Primitive: "dff",
			PortMap: map[string]PortRule{
				"clk": literal("CLK"),
				"d":   literal("D"),
				"q":   literal("Q"),
			},
			Directions: map[string]Direction{
				"clk": DirInput, "d": DirInput, "q": DirOutput,
			},
			DeriveParams: widthParams("q"),
		},

		"SLICE": {
			Primitive: "slice_cell",
			PortMap: map[string]PortRule{
				"a": literal("A"),
				"y": literal("Y"),
			},
			Directions: map[string]Direction{
				"a": DirInput, "y": DirOutput,
			},
			DeriveParams: func(widths map[string]int) []Param {
				return []Param{{Name: "aWidth", Value: widths["a"]}, {Name: "yWidth", Value: widths["y"]}}
			},
		},

		"CONCAT": {
			Primitive: "concat_cell",
			PortMap: map[string]PortRule{
				"y": literal("Y"),
			},
			Directions: map[string]Direction{
				"y": DirOutput,
			},
			DeriveParams: widthParams("y"),
		},
	}
}
