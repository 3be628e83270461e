// Package store ties a change-instrumented tree to a listener registry.
//
// A Store owns one tree.Tree whose publisher is a listener.Registry, so every
// write or delete made through the store's nodes reaches the listeners whose
// patterns match the changed path.
//
//	s, err := store.New(map[string]any{"user": map[string]any{"name": "ada"}})
//	if err != nil {
//		return err
//	}
//	l, _ := s.On("user.*", func(path pattern.Path, args ...any) {
//		fmt.Println(path, args)
//	})
//	defer s.Off(l)
//
//	user, _ := s.Root().Child("user")
//	user.Set("name", "grace") // prints [user name] [grace]
//
// Batched listeners registered with OnBatched fire at most once per flush.
// Flushes run on the store's scheduler; with the default sched.Manual the
// owner drives them with Tick.
//
// A Store is not safe for concurrent use. To share one across goroutines,
// give it a sched.Loop and run every access through Loop.Do.
package store
