package assert

import "fmt"

func NotNil(value any) {
	if value == nil {
		panic("expected value to be not nil")
	}
}

func NotEmptyStr(str string) {
	if str == "" {
		panic("expected string to be non-empty")
	}
}

// NotNegative panics when n is below zero, zero is left for callers to treat
// as "use the default".
func NotNegative(name string, n int) {
	if n < 0 {
		panic(fmt.Sprintf("expected %s to be non-negative, got %d", name, n))
	}
}
