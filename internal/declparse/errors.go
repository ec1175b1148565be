package declparse

import "fmt"

func errTagTooSmall(got, min uint64) error {
	return fmt.Errorf("explicit tag %d is less than the running counter %d", got, min)
}

func errTagOverflow(got, max uint64) error {
	return fmt.Errorf("tag %d exceeds the maximum of %d", got, max)
}
