package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("CAMPUSIQ_TEST_MODE") == "" {
			_ = os.Setenv("CAMPUSIQ_TEST_MODE", "1")
		}
	})
}
