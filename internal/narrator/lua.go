package narrator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"brawlsim/internal/combat"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// DescribeFunc is the global the narration script must define. It receives a
// table describing the action and returns a string.
const DescribeFunc = "describe"

var ErrNoScriptFunc = errors.New("narration script does not define " + DescribeFunc)

// Lua narrates actions through a gopher-lua script. The VM is guarded by a
// mutex; a Lua narrator may be shared but calls are serialised.
type Lua struct {
	mu  sync.Mutex
	vm  *lua.LState
	log *zap.Logger
}

// NewLua loads the narration script at path.
func NewLua(path string, log *zap.Logger) (*Lua, error) {
	return newLua(log, func(vm *lua.LState) error { return vm.DoFile(path) }, path)
}

// NewLuaFromSource loads a narration script from memory.
func NewLuaFromSource(name, src string, log *zap.Logger) (*Lua, error) {
	return newLua(log, func(vm *lua.LState) error { return vm.DoString(src) }, name)
}

func newLua(log *zap.Logger, load func(*lua.LState) error, name string) (*Lua, error) {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	if err := load(vm); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load narration script %s: %w", name, err)
	}
	if vm.GetGlobal(DescribeFunc).Type() != lua.LTFunction {
		vm.Close()
		return nil, fmt.Errorf("%s: %w", name, ErrNoScriptFunc)
	}
	log.Debug("loaded narration script", zap.String("script", name))
	return &Lua{vm: vm, log: log}, nil
}

func (n *Lua) Describe(ctx context.Context, l combat.Line) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.vm.SetContext(ctx)
	defer n.vm.RemoveContext()

	if err := n.vm.CallByParam(lua.P{
		Fn:      n.vm.GetGlobal(DescribeFunc),
		NRet:    1,
		Protect: true,
	}, lineTable(n.vm, l)); err != nil {
		return "", fmt.Errorf("lua %s: %w", DescribeFunc, err)
	}

	ret := n.vm.Get(-1)
	n.vm.Pop(1)
	s, ok := ret.(lua.LString)
	if !ok {
		return "", fmt.Errorf("lua %s returned %s, want string", DescribeFunc, ret.Type())
	}
	return string(s), nil
}

func (n *Lua) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.vm.Close()
}

func lineTable(vm *lua.LState, l combat.Line) *lua.LTable {
	t := vm.NewTable()
	t.RawSetString("action", lua.LString(l.Action))
	t.RawSetString("actor", lua.LString(l.Actor))
	t.RawSetString("class", lua.LString(l.Class))
	t.RawSetString("target", lua.LString(l.Target))
	t.RawSetString("skill", lua.LString(l.Skill))
	t.RawSetString("hit", lua.LBool(l.Hit))
	t.RawSetString("dodged", lua.LBool(l.Dodged))
	t.RawSetString("critical", lua.LBool(l.Critical))
	t.RawSetString("damage", lua.LNumber(l.Damage))
	t.RawSetString("absorbed", lua.LNumber(l.Absorbed))
	t.RawSetString("healed", lua.LNumber(l.Healed))
	t.RawSetString("status", lua.LString(l.Status))
	details := vm.NewTable()
	for _, d := range l.Details {
		details.Append(lua.LString(d))
	}
	t.RawSetString("details", details)
	return t
}
