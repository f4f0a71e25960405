package skiplist

// stepHook, when set, observes every link a search follows. Tests install it
// to bound the work done by a query.
var stepHook func(level int)

func step(level int) {
	if stepHook != nil {
		stepHook(level)
	}
}
