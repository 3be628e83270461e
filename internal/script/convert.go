package script

import (
	"fmt"
	"math"

	"github.com/spf13/cast"
	lua "github.com/yuin/gopher-lua"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/dshills/pathtree/internal/tree"
)

// toGo converts a Lua value for storage. Sequences with keys 1..n become
// []any, other tables map[string]any. Shared and cyclic tables stay shared.
func toGo(lv lua.LValue) any {
	return toGoVisited(lv, make(map[*lua.LTable]any))
}

func toGoVisited(lv lua.LValue, visited map[*lua.LTable]any) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if out, ok := visited[v]; ok {
			return out
		}
		return tableToGo(v, visited)
	case *lua.LUserData:
		return v.Value
	}
	return nil
}

func tableToGo(t *lua.LTable, visited map[*lua.LTable]any) any {
	n := t.MaxN()
	count := 0
	t.ForEach(func(_, _ lua.LValue) { count++ })

	if n > 0 && n == count {
		arr := make([]any, n)
		visited[t] = arr
		for i := 1; i <= n; i++ {
			arr[i-1] = toGoVisited(t.RawGetInt(i), visited)
		}
		return arr
	}

	m := make(map[string]any, count)
	visited[t] = m
	t.ForEach(func(k, v lua.LValue) {
		m[keyString(k)] = toGoVisited(v, visited)
	})
	return m
}

func keyString(k lua.LValue) string {
	if n, ok := k.(lua.LNumber); ok {
		f := float64(n)
		if f == math.Trunc(f) {
			return fmt.Sprintf("%d", int64(f))
		}
	}
	return k.String()
}

// toLua converts a stored value. Nodes become tables with 1-based array
// indices; shared and cyclic nodes map to one table.
func toLua(L *lua.LState, v any) lua.LValue {
	return toLuaVisited(L, v, make(map[any]*lua.LTable))
}

func toLuaVisited(L *lua.LState, v any, visited map[any]*lua.LTable) lua.LValue {
	switch c := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(c)
	case string:
		return lua.LString(c)
	case lua.LValue:
		return c
	case *tree.Node:
		if t, ok := visited[c]; ok {
			return t
		}
		t := L.NewTable()
		visited[c] = t
		if c.IsArray() {
			for i := 0; i < c.Len(); i++ {
				elem, _ := c.Index(i)
				t.RawSetInt(i+1, toLuaVisited(L, elem, visited))
			}
			return t
		}
		c.Range(func(key string, elem any) bool {
			t.RawSetString(key, toLuaVisited(L, elem, visited))
			return true
		})
		return t
	case []any:
		t := L.NewTable()
		for i, elem := range c {
			t.RawSetInt(i+1, toLuaVisited(L, elem, visited))
		}
		return t
	case map[string]any:
		t := L.NewTable()
		for k, elem := range c {
			t.RawSetString(k, toLuaVisited(L, elem, visited))
		}
		return t
	case *orderedmap.OrderedMap[string, any]:
		t := L.NewTable()
		for p := c.Oldest(); p != nil; p = p.Next() {
			t.RawSetString(p.Key, toLuaVisited(L, p.Value, visited))
		}
		return t
	}

	if f, err := cast.ToFloat64E(v); err == nil {
		return lua.LNumber(f)
	}
	ud := L.NewUserData()
	ud.Value = v
	return ud
}
