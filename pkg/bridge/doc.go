/*
Package bridge connects the shell to the BusTub engine module.

A Bridge owns the engine lifecycle and the call path for statements.

# Lifecycle

	Unloaded -> Loading -> Ready
	                    -> Fallback

Initialize starts a single load shared by all concurrent callers. The load has
a deadline (15 seconds by default). Failing to fetch or instantiate the module,
a nonzero return from its init export or a missed deadline all end in Fallback;
the cause is kept and available through Cause. Once Ready or Fallback, further
calls to Initialize return the stored outcome without loading again.

# Execution

Execute never returns a Go error and never panics. Statements sent before the
engine is Ready produce a failed EngineResult without a return code. Once
Ready, the command is copied into engine memory, two scratch buffers are
borrowed from the arena for the prompt and the output, and the engine's return
code is decoded:

  - 0: success.
  - 1: success, output truncated at the buffer capacity.
  - any other value: failure, with the output (or a generic message) as error text.

Calls into the module are serialized.
*/
package bridge
