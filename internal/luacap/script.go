// Package luacap loads Lua scripts as capability collaborators. A script
// declares its contract with a global capability() function and handles
// invocations with a global run(args) function.
package luacap

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/adjutant-ai/adjutant/internal/capability"
)

// Script is one loaded Lua capability. It satisfies both
// capability.Collaborator and capability.SelfDescriber, so the
// self-describing discovery strategy picks it up.
type Script struct {
	path string
	meta capability.MetaEntry
	spec []capability.ParamSpec
}

// Load reads and validates a script. The declared capability() metadata
// is evaluated once at load time; run() executes in a fresh interpreter
// per invocation so scripts never share state across calls.
func Load(path string) (*Script, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("script path: %w", err)
	}

	ls := lua.NewState()
	defer ls.Close()
	ls.PreloadModule("os", osModuleLoader)

	if err := ls.DoFile(absPath); err != nil {
		return nil, fmt.Errorf("load script %s: %w", path, err)
	}
	if ls.GetGlobal("run").Type() != lua.LTFunction {
		return nil, fmt.Errorf("script %s must define global function run(args)", path)
	}

	fn := ls.GetGlobal("capability")
	if fn.Type() != lua.LTFunction {
		return nil, fmt.Errorf("script %s must define global function capability()", path)
	}
	ls.Push(fn)
	if err := ls.PCall(0, 1, nil); err != nil {
		return nil, fmt.Errorf("capability(): %w", err)
	}
	ret := ls.Get(-1)
	ls.Pop(1)
	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("script %s: capability() must return a table, got %s", path, ret.Type())
	}

	s := &Script{path: absPath}
	if err := s.readMeta(tbl); err != nil {
		return nil, fmt.Errorf("script %s: %w", path, err)
	}
	return s, nil
}

// LoadDir loads every *.lua file in dir, sorted by name. A missing dir
// is not an error; a broken script is.
func LoadDir(dir string) ([]*Script, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lua dir %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var scripts []*Script
	for _, name := range names {
		s, err := Load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		log.Printf("luacap: loaded %s as %s", name, s.meta.Name)
		scripts = append(scripts, s)
	}
	return scripts, nil
}

// Name returns the declared public capability name.
func (s *Script) Name() string { return s.meta.Name }

// Methods satisfies capability.Collaborator.
func (s *Script) Methods() []capability.Method {
	return []capability.Method{{
		Name:   s.meta.Name,
		Params: s.spec,
		Invoke: s.invoke,
	}}
}

// Describe satisfies capability.SelfDescriber.
func (s *Script) Describe(method string) (capability.MetaEntry, bool) {
	if method != s.meta.Name {
		return capability.MetaEntry{}, false
	}
	return s.meta, true
}

func (s *Script) invoke(_ context.Context, args capability.Args) (any, error) {
	ls := lua.NewState()
	defer ls.Close()
	ls.PreloadModule("os", osModuleLoader)

	if err := ls.DoFile(s.path); err != nil {
		return nil, fmt.Errorf("load script: %w", err)
	}
	fn := ls.GetGlobal("run")
	if fn.Type() != lua.LTFunction {
		return nil, fmt.Errorf("script must define global function run(args)")
	}

	ls.Push(fn)
	ls.Push(goToLua(ls, map[string]any(args)))
	if err := ls.PCall(1, 1, nil); err != nil {
		return nil, fmt.Errorf("run(): %w", err)
	}
	ret := ls.Get(-1)
	ls.Pop(1)
	return luaToGo(ret), nil
}

func (s *Script) readMeta(tbl *lua.LTable) error {
	s.meta.Name = lua.LVAsString(tbl.RawGetString("name"))
	if s.meta.Name == "" {
		return fmt.Errorf("capability() must declare a name")
	}
	s.meta.Description = lua.LVAsString(tbl.RawGetString("description"))
	s.meta.Category = lua.LVAsString(tbl.RawGetString("category"))
	s.meta.Guidance = lua.LVAsString(tbl.RawGetString("guidance"))

	if examples, ok := tbl.RawGetString("examples").(*lua.LTable); ok {
		examples.ForEach(func(_, v lua.LValue) {
			s.meta.Examples = append(s.meta.Examples, lua.LVAsString(v))
		})
	}

	params, ok := tbl.RawGetString("params").(*lua.LTable)
	if !ok {
		return nil
	}
	var readErr error
	params.ForEach(func(_, v lua.LValue) {
		if readErr != nil {
			return
		}
		p, ok := v.(*lua.LTable)
		if !ok {
			readErr = fmt.Errorf("params entries must be tables")
			return
		}
		name := lua.LVAsString(p.RawGetString("name"))
		if name == "" {
			readErr = fmt.Errorf("param without a name")
			return
		}
		pt, err := capability.ParseParamType(lua.LVAsString(p.RawGetString("type")))
		if err != nil {
			readErr = fmt.Errorf("param %s: %w", name, err)
			return
		}
		spec := capability.ParamSpec{
			Name:     name,
			Type:     pt,
			Required: lua.LVAsBool(p.RawGetString("required")),
		}
		if def := p.RawGetString("default"); def.Type() != lua.LTNil {
			spec.HasDefault = true
			spec.Default = luaToGo(def)
		}
		s.spec = append(s.spec, spec)
	})
	return readErr
}

// goToLua converts bound arguments into Lua values.
func goToLua(ls *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case string:
		return lua.LString(val)
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case []string:
		tbl := ls.NewTable()
		for _, s := range val {
			tbl.Append(lua.LString(s))
		}
		return tbl
	case []any:
		tbl := ls.NewTable()
		for _, item := range val {
			tbl.Append(goToLua(ls, item))
		}
		return tbl
	case map[string]string:
		tbl := ls.NewTable()
		for k, s := range val {
			tbl.RawSetString(k, lua.LString(s))
		}
		return tbl
	case map[string]any:
		tbl := ls.NewTable()
		for k, item := range val {
			tbl.RawSetString(k, goToLua(ls, item))
		}
		return tbl
	}
	return lua.LString(fmt.Sprintf("%v", v))
}

// luaToGo converts a script result into plain Go values.
func luaToGo(v lua.LValue) any {
	switch val := v.(type) {
	case lua.LString:
		return string(val)
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		f := float64(val)
		if f == float64(int(f)) {
			return int(f)
		}
		return f
	case *lua.LTable:
		// Array-shaped tables become slices, everything else maps.
		if val.Len() > 0 {
			out := make([]any, 0, val.Len())
			for i := 1; i <= val.Len(); i++ {
				out = append(out, luaToGo(val.RawGetInt(i)))
			}
			return out
		}
		out := make(map[string]any)
		val.ForEach(func(k, item lua.LValue) {
			out[k.String()] = luaToGo(item)
		})
		return out
	}
	return nil
}

// osModuleLoader exposes a minimal os module: getenv and time.
func osModuleLoader(ls *lua.LState) int {
	mod := ls.NewTable()
	ls.SetField(mod, "getenv", ls.NewFunction(func(ls *lua.LState) int {
		ls.Push(lua.LString(os.Getenv(ls.CheckString(1))))
		return 1
	}))
	ls.SetField(mod, "time", ls.NewFunction(func(ls *lua.LState) int {
		ls.Push(lua.LNumber(time.Now().Unix()))
		return 1
	}))
	ls.Push(mod)
	return 1
}
