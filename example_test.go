package phreduce_test

import (
	"fmt"
	"os"
	"strings"

	"github.com/hupe1980/phreduce"
)

func Example() {
	// Boundary matrix of a filled triangle: 3 vertices, 3 edges, 1 face.
	input := "7\n\n\n\n0 1\n0 2\n1 2\n3 4 5\n"

	r, err := phreduce.OpenReader(phreduce.Sequential, strings.NewReader(input))
	if err != nil {
		fmt.Println(err)
		return
	}
	defer r.Close()

	lows, err := r.Reduce(true)
	if err != nil {
		fmt.Println(err)
		return
	}

	_ = phreduce.WritePairs(os.Stdout, phreduce.Pairs(lows, true))
	// Output:
	// 3 1
	// 4 2
	// 6 5
}

func ExampleParseMode() {
	m, _ := phreduce.ParseMode("sparse-parallel-twist")
	fmt.Println(m.Kind, m.Twist)
	// Output: sparse-parallel true
}
