package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/pathtree/internal/pattern"
	"github.com/dshills/pathtree/internal/store"
	"github.com/dshills/pathtree/internal/tree"
)

func (e *Engine) api() *lua.LTable {
	return e.L.SetFuncs(e.L.NewTable(), map[string]lua.LGFunction{
		"get":        e.luaGet,
		"set":        e.luaSet,
		"delete":     e.luaDelete,
		"push":       e.luaPush,
		"pop":        e.luaPop,
		"sort":       e.luaSort,
		"keys":       e.luaKeys,
		"len":        e.luaLen,
		"on":         e.luaOn,
		"on_batched": e.luaOnBatched,
		"off":        e.luaOff,
		"flush":      e.luaFlush,
		"tick":       e.luaTick,
	})
}

func (e *Engine) luaGet(L *lua.LState) int {
	v, ok := e.store.Get(pattern.ParsePath(L.CheckString(1)))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(toLua(L, v))
	return 1
}

func (e *Engine) luaSet(L *lua.LState) int {
	path := pattern.ParsePath(L.CheckString(1))
	if err := e.store.SetPath(path, toGo(L.CheckAny(2))); err != nil {
		L.RaiseError("set %s: %v", path, err)
	}
	return 0
}

func (e *Engine) luaDelete(L *lua.LState) int {
	path := pattern.ParsePath(L.CheckString(1))
	if err := e.store.DeletePath(path); err != nil {
		L.RaiseError("delete %s: %v", path, err)
	}
	return 0
}

func (e *Engine) luaPush(L *lua.LState) int {
	n := e.checkNode(L, 1)
	values := make([]any, 0, L.GetTop()-1)
	for i := 2; i <= L.GetTop(); i++ {
		values = append(values, toGo(L.Get(i)))
	}
	length, err := n.Push(values...)
	if err != nil {
		L.RaiseError("push: %v", err)
	}
	L.Push(lua.LNumber(length))
	return 1
}

func (e *Engine) luaPop(L *lua.LState) int {
	n := e.checkNode(L, 1)
	v, _, err := n.Pop()
	if err != nil {
		L.RaiseError("pop: %v", err)
	}
	L.Push(toLua(L, v))
	return 1
}

func (e *Engine) luaSort(L *lua.LState) int {
	n := e.checkNode(L, 1)
	var less func(a, b any) bool
	if fn, ok := L.Get(2).(*lua.LFunction); ok {
		less = func(a, b any) bool {
			L.Push(fn)
			L.Push(toLua(L, a))
			L.Push(toLua(L, b))
			L.Call(2, 1)
			ret := L.Get(-1)
			L.Pop(1)
			return lua.LVAsBool(ret)
		}
	}
	if err := n.Sort(less); err != nil {
		L.RaiseError("sort: %v", err)
	}
	return 0
}

func (e *Engine) luaKeys(L *lua.LState) int {
	n := e.checkNode(L, 1)
	t := L.NewTable()
	for _, k := range n.Keys() {
		t.Append(lua.LString(k))
	}
	L.Push(t)
	return 1
}

func (e *Engine) luaLen(L *lua.LState) int {
	L.Push(lua.LNumber(e.checkNode(L, 1).Len()))
	return 1
}

func (e *Engine) luaOn(L *lua.LState) int {
	src := e.checkPattern(L, 1)
	fn := L.CheckFunction(2)
	l, err := e.store.On(src, func(path pattern.Path, args ...any) {
		if len(args) == 0 {
			e.callback(fn, lua.LString(path.String()))
			return
		}
		e.callback(fn, lua.LString(path.String()), toLua(e.L, args[0]))
	})
	if err != nil {
		L.RaiseError("on: %v", err)
	}
	e.listeners[l.ID()] = l
	L.Push(lua.LString(l.ID()))
	return 1
}

func (e *Engine) luaOnBatched(L *lua.LState) int {
	src := e.checkPattern(L, 1)
	fn := L.CheckFunction(2)
	l, err := e.store.OnBatched(src, func(p pattern.Pattern) {
		e.callback(fn, lua.LString(p.String()))
	})
	if err != nil {
		L.RaiseError("on_batched: %v", err)
	}
	e.listeners[l.ID()] = l
	L.Push(lua.LString(l.ID()))
	return 1
}

func (e *Engine) luaOff(L *lua.LState) int {
	id := L.CheckString(1)
	l, ok := e.listeners[id]
	if ok {
		e.store.Off(l)
		delete(e.listeners, id)
	}
	L.Push(lua.LBool(ok))
	return 1
}

func (e *Engine) luaFlush(L *lua.LState) int {
	L.Push(lua.LNumber(e.store.Flush()))
	return 1
}

func (e *Engine) luaTick(L *lua.LState) int {
	L.Push(lua.LNumber(e.store.Tick()))
	return 1
}

// checkNode returns the container at the path in argument n.
func (e *Engine) checkNode(L *lua.LState, n int) *tree.Node {
	path := L.CheckString(n)
	v, ok := e.store.Get(pattern.ParsePath(path))
	node, isNode := v.(*tree.Node)
	if !ok || !isNode {
		L.ArgError(n, fmt.Sprintf("%q is not an object or array", path))
	}
	return node
}

// checkPattern accepts a dotted string or a table of segments.
func (e *Engine) checkPattern(L *lua.LState, n int) pattern.Pattern {
	var src any
	switch v := L.Get(n).(type) {
	case lua.LString:
		src = string(v)
	case *lua.LTable:
		segments, ok := toGo(v).([]any)
		if !ok {
			L.ArgError(n, "pattern table must be a sequence")
		}
		src = segments
	default:
		L.TypeError(n, lua.LTString)
	}
	p, err := store.PatternOf(src)
	if err != nil {
		L.ArgError(n, err.Error())
	}
	return p
}
