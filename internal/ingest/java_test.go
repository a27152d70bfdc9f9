package ingest

import (
	"reflect"
	"testing"

	"dexgraph/internal/graph"
)

const sampleJava = `
package com.example.app;

public class Worker extends Base implements Task {

    public void run() {
        int total = helper(1);
        log(total);
    }

    private int helper(int x) {
        return x * 2;
    }

    static class Inner {
        void poke() {
            poke();
        }
    }
}
`

func extract(t *testing.T, src string) *FileFacts {
	t.Helper()
	facts, err := NewJavaExtractor().Extract("Worker.java", []byte(src))
	if err != nil {
		t.Fatal(err)
	}
	return facts
}

func classByName(t *testing.T, facts *FileFacts, name graph.ClassName) ClassFact {
	t.Helper()
	for _, c := range facts.Classes {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("class %q not extracted; got %+v", name, facts.Classes)
	return ClassFact{}
}

func TestExtractClass(t *testing.T) {
	facts := extract(t, sampleJava)

	if facts.Package != "com.example.app" {
		t.Fatalf("unexpected package: %q", facts.Package)
	}

	worker := classByName(t, facts, "com.example.app.Worker")
	if !worker.Flags.IsPublic() {
		t.Fatalf("expected public flags, got %v", worker.Flags)
	}
	if worker.Super != "Base" {
		t.Fatalf("unexpected superclass: %q", worker.Super)
	}
	if !reflect.DeepEqual(worker.Interfaces, []string{"Task"}) {
		t.Fatalf("unexpected interfaces: %v", worker.Interfaces)
	}
	if len(worker.Methods) != 2 {
		t.Fatalf("expected 2 methods on Worker, got %+v", worker.Methods)
	}
}

func TestExtractMethods(t *testing.T) {
	facts := extract(t, sampleJava)
	worker := classByName(t, facts, "com.example.app.Worker")

	var run, helper *MethodFact
	for i := range worker.Methods {
		switch worker.Methods[i].Name {
		case "run":
			run = &worker.Methods[i]
		case "helper":
			helper = &worker.Methods[i]
		}
	}
	if run == nil || helper == nil {
		t.Fatalf("missing methods: %+v", worker.Methods)
	}

	if run.Ret != "void" {
		t.Fatalf("unexpected return type for run: %q", run.Ret)
	}
	if !reflect.DeepEqual(run.Calls, []string{"helper", "log"}) {
		t.Fatalf("unexpected call sites for run: %v", run.Calls)
	}

	if !reflect.DeepEqual(helper.Args, []string{"int"}) {
		t.Fatalf("unexpected args for helper: %v", helper.Args)
	}
	if helper.Flags.IsPublic() {
		t.Fatal("helper must not carry the public flag")
	}
}

func TestExtractNestedClass(t *testing.T) {
	facts := extract(t, sampleJava)
	inner := classByName(t, facts, "com.example.app.Worker$Inner")

	if !inner.Flags.IsStatic() {
		t.Fatalf("expected static flags on Inner, got %v", inner.Flags)
	}
	if len(inner.Methods) != 1 || inner.Methods[0].Name != "poke" {
		t.Fatalf("unexpected Inner methods: %+v", inner.Methods)
	}
	if !reflect.DeepEqual(inner.Methods[0].Calls, []string{"poke"}) {
		t.Fatalf("recursive call not captured: %v", inner.Methods[0].Calls)
	}
}

func TestExtractInterface(t *testing.T) {
	facts := extract(t, `
package com.example.app;

public interface Task extends Closeable {
    void run();
}
`)
	task := classByName(t, facts, "com.example.app.Task")
	if !task.Flags.IsInterface() || !task.Flags.IsAbstract() {
		t.Fatalf("interface flags missing: %v", task.Flags)
	}
	if !reflect.DeepEqual(task.Interfaces, []string{"Closeable"}) {
		t.Fatalf("extends clause not captured: %v", task.Interfaces)
	}
	if len(task.Methods) != 1 || task.Methods[0].Name != "run" {
		t.Fatalf("unexpected interface methods: %+v", task.Methods)
	}
}

func TestExtractDefaultPackage(t *testing.T) {
	facts := extract(t, `class Plain {}`)
	if facts.Package != "" {
		t.Fatalf("expected default package, got %q", facts.Package)
	}
	classByName(t, facts, "Plain")
}

func TestExtractConstructor(t *testing.T) {
	facts := extract(t, `
package com.example.app;

public class Holder {
    public Holder(int size) {
        resize(size);
    }
    void resize(int n) {}
}
`)
	holder := classByName(t, facts, "com.example.app.Holder")

	var init *MethodFact
	for i := range holder.Methods {
		if holder.Methods[i].Name == "<init>" {
			init = &holder.Methods[i]
		}
	}
	if init == nil {
		t.Fatalf("constructor not extracted: %+v", holder.Methods)
	}
	if !reflect.DeepEqual(init.Args, []string{"int"}) {
		t.Fatalf("unexpected constructor args: %v", init.Args)
	}
	if !reflect.DeepEqual(init.Calls, []string{"resize"}) {
		t.Fatalf("constructor call sites missing: %v", init.Calls)
	}
}
