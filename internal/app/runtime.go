package app

import (
	"os"
	"sync"
)

const testModeEnv = "KONTOR_TEST_MODE"

var inTestMode = sync.OnceValue(func() bool {
	return os.Getenv(testModeEnv) == "1"
})

// InTestMode reports whether the binaries should skip runtime side effects,
// keeping the mains inert while their packages are under test.
func InTestMode() bool {
	return inTestMode()
}
