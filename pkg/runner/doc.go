/*
Package runner implements the line-mode read-eval-print loop of the shell.

It drives a session.Session over plain readers and writers, which makes it
the front-end for pipes, scripts and terminals where the full-screen TUI is
not wanted.

# Key Components

  - Runner: reads lines, submits them to the session and prints whatever the
    transcript gained.
  - TextHandler: prompt and input pump over an io.Reader, plus transcript
    line printing with optional rendering and styling.

# Usage

	r := runner.NewRunner(
		runner.WithInput(os.Stdin),
		runner.WithOutput(os.Stdout),
		runner.WithRenderer(tui.NewRenderer()),
	)

	if err := r.Run(ctx, sess); err != nil {
		log.Fatal(err)
	}

The loop ends on end of input, on the words "exit" or "quit" typed outside a
statement, or when ctx is cancelled.
*/
package runner
