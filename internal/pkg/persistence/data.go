package persistence

import "time"

type (

	//TestRecord table - one stored screening outcome per fresh submission
	TestRecord struct {
		ID        int64
		UserEmail string
		Percent   int
		Label     string
		Created   time.Time
	}
)
