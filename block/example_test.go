package block_test

import (
	"fmt"

	"github.com/ardnew/codeblock/block"
)

func Example() {
	f, err := block.NewBuilder().
		BeginControlFlow("if ($N > $L)", "count", 10).
		Statement("return $S", "too many").
		EndControlFlow().
		Build()
	if err != nil {
		fmt.Println(err)

		return
	}

	for part, arg := range f.All() {
		if arg != nil {
			fmt.Printf("%q -> %v\n", part, arg)
		} else {
			fmt.Printf("%q\n", part)
		}
	}

	// Output:
	// "if ("
	// "$N" -> count
	// " > "
	// "$L" -> 10
	// ") {\n"
	// "$>"
	// "return "
	// "$S" -> too many
	// ";\n"
	// "$<"
	// "}\n"
}

func ExampleBuilder_Add() {
	b := block.NewBuilder().
		Add("$L + $L", 1, 2).
		Add("$S", "a", "b").
		Add("never appended")

	fmt.Println(b.Err())
	fmt.Println(b.Len())

	// Output:
	// argument count mismatch (expected=1 got=2 format=$S)
	// 3
}

func ExampleFragment_Equal() {
	a := block.MustOf("$T $N", "int", "x")
	b := block.NewBuilder().Add("$T", "int").Add(" $N", "x").MustBuild()

	fmt.Println(a.Equal(b))

	// Output:
	// true
}
