// Package search implements the search, pagination and selection state of
// cinesearch.
//
// State transitions are pure: Reduce maps a State and an Event to the next
// State. Machine layers the query controller on top of that, turning the
// active query and page into a cache key and notifying the user when a
// search fails or finds nothing.
//
// Basic usage:
//
//	board := notify.NewBoard()
//	machine := search.NewMachine(controller, board, logger)
//
//	view, err := machine.Dispatch(ctx, search.SubmitSearch{Text: "batman"})
//	if err != nil {
//		return err
//	}
//
//	// Later, when the controller reports a settled key
//	view = machine.Refresh(ctx)
//	for _, n := range board.Drain() {
//		fmt.Println(n.Message)
//	}
package search
