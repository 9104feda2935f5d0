package main

import (
	"fmt"
	"os"

	"cjit/pkg/compiler"
	"cjit/pkg/jit"
)

const testSource = `int square(int x) {
	return x * x;
}
`

func main() {
	src := testSource
	if len(os.Args) > 1 {
		data, err := os.ReadFile(os.Args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "read error:", err)
			os.Exit(1)
		}
		src = string(data)
	}

	lib, errs := compiler.Compile(src, &jit.ClangBackend{})
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e.Error())
		}
		os.Exit(1)
	}

	square := lib.Func("square")
	if square == nil {
		fmt.Fprintln(os.Stderr, "no function named \"square\" in this source")
		os.Exit(1)
	}
	result, err := square.Call(int32(7))
	if err != nil {
		fmt.Fprintln(os.Stderr, "call error:", err)
		os.Exit(1)
	}
	fmt.Println("square(7) =", result)
}
