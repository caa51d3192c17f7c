package main

import "fmt"

func third(n int) int {
	return n * 2
}

func second(n int) int {
	return third(n + 1)
}

func first(n int) int {
	return second(n + 1)
}

func main() {
	total := 0
	for i := 0; i < 3; i++ {
		total += first(i)
	}
	fmt.Println(total)
}
