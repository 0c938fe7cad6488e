package sample

func Inc(x int) int {
	return x + 1
}

func Sum(n int) int {
	s := 0
	for i := 0; i < n; i++ {
		s += i
	}
	return s
}

func Fact(n int) int {
	if n <= 1 {
		return 1
	}
	return n * Fact(n-1)
}

func Deref(p *int) int {
	return *p // want `TGV000: Unsupported: sample.Deref: unsupported construct: unary \*`
}

func Pair(x int) (int, int) {
	return x, x // want `TGV000: Unsupported: .*multiple results`
}

func Wrap(x uint8) uint8 { // want `TGV000: Unsupported: sample.Wrap: unsupported construct: numeric type uint8`
	return x + 1
}

type counter struct{ n int }

func (c counter) Next() int {
	return c.n + 1
}
