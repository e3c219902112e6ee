/*
Package session implements the shell's session state machine.

A Session turns submitted input lines into statements for the engine. Lines
accumulate in a pending buffer until the buffer forms a complete statement:

  - it ends with ';' once trimmed, or
  - it starts with the escape prefix '\'.

Complete statements are echoed, recorded in the history and dispatched. The
reserved `\clear` command empties the transcript without reaching the engine.

# States

	Idle <-> Accumulating

Busy is orthogonal: while a statement is in flight further submissions fail
with domain.ErrBusy. The flag is cleared on every path out of a dispatch.

# Transcript

Every echo, output row, error and notice is appended to the transcript as a
domain.SessionLine. Front-ends render the transcript; they never mutate it.
*/
package session
