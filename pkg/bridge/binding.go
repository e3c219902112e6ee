package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/bustub-shell/pkg/arena"
	"github.com/aretw0/bustub-shell/pkg/domain"
	"github.com/aretw0/bustub-shell/pkg/ports"
)

// binding marshals commands into a loaded module.
type binding struct {
	mod   ports.Module
	arena *arena.Arena
}

func newBinding(mod ports.Module, a *arena.Arena) *binding {
	return &binding{mod: mod, arena: a}
}

func (bd *binding) Execute(ctx context.Context, command string) domain.EngineResult {
	var res domain.EngineResult
	err := bd.arena.Scope(ctx, 2, func(bufs []*arena.Buffer) error {
		prompt, output := bufs[0], bufs[1]

		cmdPtr, err := bd.writeCommand(ctx, command)
		if err != nil {
			return err
		}
		defer func() { _ = bd.mod.Free(ctx, cmdPtr) }()

		code, err := bd.mod.Execute(ctx, cmdPtr, prompt.Ptr(), output.Ptr(), uint32(output.Cap()))
		if err != nil {
			if errors.Is(err, domain.ErrBridgeInternal) {
				return err
			}
			return fmt.Errorf("%w: %w", domain.ErrEngineFailure, err)
		}

		p, err := prompt.ReadString()
		if err != nil {
			return err
		}
		o, err := output.ReadString()
		if err != nil {
			return err
		}
		res = domain.DecodeResult(int(code), p, o)
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrEngineFailure) && !errors.Is(err, domain.ErrBridgeInternal) {
			err = fmt.Errorf("%w: %w", domain.ErrBridgeInternal, err)
		}
		return domain.FailedResult(err)
	}
	return res
}

// writeCommand copies the command into a transient NUL-terminated region,
// truncated to the buffer capacity on a character boundary. The caller frees it.
func (bd *binding) writeCommand(ctx context.Context, command string) (uint32, error) {
	command = arena.Truncate(command, bd.arena.Capacity()-1)
	data := make([]byte, len(command)+1)
	copy(data, command)

	ptr, err := bd.mod.Malloc(ctx, uint32(len(data)))
	if err != nil {
		return 0, fmt.Errorf("allocate command: %w", err)
	}
	if ptr == 0 {
		return 0, errors.New("allocate command: engine returned a null pointer")
	}
	if !bd.mod.Memory().Write(ptr, data) {
		_ = bd.mod.Free(ctx, ptr)
		return 0, fmt.Errorf("write command at %#x: out of range", ptr)
	}
	return ptr, nil
}

func (bd *binding) Close(ctx context.Context) error {
	return errors.Join(bd.arena.Close(ctx), bd.mod.Close(ctx))
}
