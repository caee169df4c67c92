package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestTreeFollowsInstalledDependencies(t *testing.T) {
	s := newTestStore(t, nil)
	installLocal(t, s, `{"name": "App", "version": "1.0.0", "dependencies": [{"name": "Display", "version": "^1.0.0"}, {"name": "Radio"}]}`)
	installLocal(t, s, `{"name": "Display", "version": "1.4.0", "dependencies": {"Fonts": "*"}}`)
	installLocal(t, s, `{"name": "Fonts", "version": "0.9.0"}`)

	root, err := s.Tree("app")
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	if root.Name != "App" || !root.Installed {
		t.Fatalf("root = %+v", root)
	}
	if len(root.Children) != 2 {
		t.Fatalf("root has %d children, want 2", len(root.Children))
	}

	display, radio := root.Children[0], root.Children[1]
	if !display.Installed || display.Version != "1.4.0" || display.Requirement != "^1.0.0" {
		t.Errorf("display = %+v", display)
	}
	if len(display.Children) != 1 || display.Children[0].Name != "Fonts" {
		t.Errorf("display children = %+v", display.Children)
	}
	if radio.Installed {
		t.Errorf("radio should not be installed: %+v", radio)
	}
}

func TestTreeMarksRepeatedDependencies(t *testing.T) {
	s := newTestStore(t, nil)
	installLocal(t, s, `{"name": "App", "dependencies": {"Core": "", "Net": ""}}`)
	installLocal(t, s, `{"name": "Net", "dependencies": {"Core": ""}}`)
	installLocal(t, s, `{"name": "Core"}`)

	root, err := s.Tree("App")
	if err != nil {
		t.Fatal(err)
	}
	if got := countDeduped(root); got != 1 {
		t.Errorf("deduped nodes = %d, want 1", got)
	}

	flat := Flatten(root)
	var names []string
	for _, n := range flat {
		names = append(names, n.Name)
	}
	want := []string{"Core", "Net", "App"}
	if len(names) != len(want) {
		t.Fatalf("Flatten = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Flatten[%d] = %s, want %s", i, names[i], want[i])
		}
	}
}

func TestTreeNotInstalled(t *testing.T) {
	s := newTestStore(t, nil)
	if _, err := s.Tree("nothing"); !errors.Is(err, ErrNotInstalled) {
		t.Errorf("error = %v, want ErrNotInstalled", err)
	}
}

func countDeduped(node *Node) int {
	count := 0
	if node.Deduped {
		count++
	}
	for _, child := range node.Children {
		count += countDeduped(child)
	}
	return count
}

func TestTreeFindsPinnedDependencyByURL(t *testing.T) {
	s := newTestStore(t, nil)
	pin := "file://" + filepath.ToSlash(filepath.Join(t.TempDir(), "radio-fork"))
	writeTree(t, pin[len("file://"):], map[string]string{"library.json": `{"name": "RadioFork", "version": "0.2.0"}`})

	pinned, err := s.Install(context.Background(), Request{Name: "Radio", URL: pin})
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	installLocal(t, s, `{"name": "App", "dependencies": {"Radio": "`+pin+`"}}`)

	root, err := s.Tree("App")
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	if len(root.Children) != 1 {
		t.Fatalf("children = %+v", root.Children)
	}
	radio := root.Children[0]
	if !radio.Installed || radio.Dir != pinned || radio.Name != "RadioFork" {
		t.Errorf("radio = %+v, want installed at %s", radio, pinned)
	}
}
