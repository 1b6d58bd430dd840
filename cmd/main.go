package main

import (
	"fmt"

	"github.com/probemap/probemap"
)

func main() {
	words := []string{
		"reuse", "probe", "chain", "slot", "grow",
		"bucket", "table", "hash", "load", "factor",
		"wrap", "cycle", "gap", "scan", "shift",
	}

	m := probemap.New[string, int]()
	for i, w := range words {
		m.Put(w, i)
	}
	fmt.Println("len:", m.Len(), "cap:", m.Cap())
	fmt.Printf("load: %.2f max probe: %d\n", m.Load(), m.MaxProbe())

	if prev, ok := m.Put("probe", 100); ok {
		fmt.Println("overwrote probe, previous:", prev)
	}

	for _, w := range []string{"slot", "gap", "missing"} {
		if v, ok := m.Get(w); ok {
			fmt.Printf("%s = %d\n", w, v)
		} else {
			fmt.Printf("%s is absent\n", w)
		}
	}

	if v, ok := m.Delete("gap"); ok {
		fmt.Println("deleted gap, had:", v)
	}
	fmt.Println("contains gap:", m.Contains("gap"))
	fmt.Println("len:", m.Len(), "cap:", m.Cap())
}
