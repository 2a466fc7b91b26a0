package runtime

import "testing"

func TestDynamicScopeValues(t *testing.T) {
	staticScope := NewLocalStaticScope(nil)
	staticScope.SetVariables([]string{"a", "b"})

	scope := NewDynamicScope(staticScope, nil)
	if got := scope.SetValue("alpha", 0, 0); got != Object("alpha") {
		t.Error("SetValue should return the stored value")
	}
	scope.SetValue("beta", 1, 0)

	if scope.Value(0, 0) != Object("alpha") || scope.Value(1, 0) != Object("beta") {
		t.Error("values should read back from their slots")
	}
}

func TestDynamicScopeDepthAccess(t *testing.T) {
	outerStatic := NewLocalStaticScope(nil)
	outerStatic.SetVariables([]string{"x"})
	outer := NewDynamicScope(outerStatic, nil)
	outer.SetValue("captured", 0, 0)

	blockStatic := NewBlockStaticScope(outerStatic)
	blockStatic.SetVariables([]string{"y"})
	inner := NewDynamicScope(blockStatic, outer)

	if inner.Depth() != 1 {
		t.Fatalf("depth = %d, want 1", inner.Depth())
	}
	if inner.Value(0, 1) != Object("captured") {
		t.Error("depth-1 access should reach the enclosing invocation's slot")
	}

	inner.SetValue("rebound", 0, 1)
	if outer.Value(0, 0) != Object("rebound") {
		t.Error("depth-1 writes should land in the enclosing scope's storage")
	}
}

func TestDynamicScopeTooShallowPanics(t *testing.T) {
	scope := NewDynamicScope(NewLocalStaticScope(nil), nil)

	defer func() {
		if recover() == nil {
			t.Fatal("walking past the chain root should panic")
		}
	}()
	scope.Value(0, 1)
}

func TestDummyScopeIdentity(t *testing.T) {
	staticScope := NewLocalStaticScope(nil)

	first := staticScope.DummyScope()
	second := staticScope.DummyScope()
	if first != second {
		t.Error("a descriptor has exactly one dummy scope")
	}
	if !first.IsDummy() {
		t.Error("the dummy scope should identify itself")
	}
	if NewDynamicScope(staticScope, nil).IsDummy() {
		t.Error("ordinary scopes over the same descriptor are not dummies")
	}
}

func TestBlockStaticScopeFlag(t *testing.T) {
	method := NewLocalStaticScope(nil)
	block := NewBlockStaticScope(method)

	if method.IsBlockScope() {
		t.Error("local descriptors are not block scopes")
	}
	if !block.IsBlockScope() {
		t.Error("block descriptors should say so")
	}
	if block.Enclosing() != method {
		t.Error("block descriptor should remember its lexical parent")
	}
}

func TestStaticScopeConstantLexicalWalk(t *testing.T) {
	objectClass := NewBasicModule("Object")
	objectClass.SetConstant("ROOT", "root-value")

	outerModule := NewBasicModule("Outer")
	outerModule.SetConstant("SHARED", "outer-value")
	outerStatic := NewLocalStaticScope(nil)
	outerStatic.SetModule(outerModule)

	innerModule := NewBasicModule("Outer::Inner")
	innerModule.SetConstant("SHARED", "inner-value")
	innerStatic := NewLocalStaticScope(outerStatic)
	innerStatic.SetModule(innerModule)

	// The innermost definition wins.
	if v, ok := innerStatic.Constant("SHARED", objectClass); !ok || v != Object("inner-value") {
		t.Errorf("SHARED = %v, want the inner module's value", v)
	}
	// Scopes with no module of their own defer outward.
	bare := NewBlockStaticScope(innerStatic)
	if v, ok := bare.Constant("SHARED", objectClass); !ok || v != Object("inner-value") {
		t.Errorf("SHARED through a bare scope = %v, want the inner value", v)
	}
	// Misses fall back to the root class.
	if v, ok := innerStatic.Constant("ROOT", objectClass); !ok || v != Object("root-value") {
		t.Errorf("ROOT = %v, want the object-class fallback", v)
	}
	if _, ok := innerStatic.Constant("MISSING", objectClass); ok {
		t.Error("an undefined constant should not resolve")
	}
}
