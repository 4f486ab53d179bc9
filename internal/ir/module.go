package ir

import "fmt"

// Module is a compilation unit: named struct types and functions.
type Module struct {
	Name       string
	Triple     string
	DataLayout string
	Target     *TargetData

	structs   []*StructType
	structMap map[string]*StructType
	funcs     []*Func
	funcMap   map[string]*Func
}

// NewModule returns an empty module.
func NewModule(name string, target *TargetData) *Module {
	return &Module{
		Name:      name,
		Target:    target,
		structMap: make(map[string]*StructType),
		funcMap:   make(map[string]*Func),
	}
}

// NewStructType defines a named struct type. Defining a name twice panics.
func (m *Module) NewStructType(name string, fields ...Type) *StructType {
	if _, dup := m.structMap[name]; dup {
		panic(fmt.Sprintf("ir.NewStructType: duplicate struct type %%%s", name))
	}
	t := &StructType{Name: name, Fields: fields}
	m.structs = append(m.structs, t)
	m.structMap[name] = t
	return t
}

// StructType returns the named struct type, or nil.
func (m *Module) StructType(name string) *StructType {
	return m.structMap[name]
}

// Structs returns the named struct types in definition order.
func (m *Module) Structs() []*StructType { return m.structs }

// NewFunc adds a function definition with an entry block.
func (m *Module) NewFunc(name string, typ *FuncType) *Func {
	return m.addFunc(newFunc(name, typ, true))
}

// DeclareFunc adds an external function declaration.
func (m *Module) DeclareFunc(name string, typ *FuncType) *Func {
	return m.addFunc(newFunc(name, typ, false))
}

func (m *Module) addFunc(f *Func) *Func {
	if _, dup := m.funcMap[f.Name]; dup {
		panic(fmt.Sprintf("ir.addFunc: duplicate function @%s", f.Name))
	}
	f.Module = m
	m.funcs = append(m.funcs, f)
	m.funcMap[f.Name] = f
	return f
}

// Func returns the function with the given name, or nil.
func (m *Module) Func(name string) *Func {
	return m.funcMap[name]
}

// Funcs returns all functions in definition order.
func (m *Module) Funcs() []*Func { return m.funcs }
