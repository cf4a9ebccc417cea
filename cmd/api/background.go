package main

// background runs fn on its own goroutine with panic recovery, so a mail
// failure or similar side task can never take a request down with it.
func (app *application) background(fn func()) {
	go func() {
		defer func() {
			if err := recover(); err != nil {
				app.logger.Errorw("background task panicked", "error", err)
			}
		}()
		fn()
	}()
}
