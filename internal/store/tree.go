package store

import "fmt"

// Node is one library in an installed dependency tree.
type Node struct {
	Name        string
	Version     string
	Requirement string
	Dir         string
	Installed   bool
	Deduped     bool // already shown earlier in the tree
	Children    []*Node
}

// Tree builds the dependency tree of an installed library from the
// installed manifests. Dependencies that are not installed appear as
// leaves with Installed unset.
func (s *Store) Tree(name string) (*Node, error) {
	dir, ok := s.InstalledDir(name, "", "")
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNotInstalled)
	}
	return s.TreeAt(dir)
}

// TreeAt builds the dependency tree rooted at an installed directory.
func (s *Store) TreeAt(dir string) (*Node, error) {
	return s.buildNode(&Node{}, dir, make(map[string]bool))
}

func (s *Store) buildNode(node *Node, dir string, seen map[string]bool) (*Node, error) {
	node.Dir = dir
	node.Installed = true

	if seen[dir] {
		node.Deduped = true
		return node, nil
	}
	seen[dir] = true

	lib, err := s.LoadManifest(dir)
	if err != nil {
		return nil, fmt.Errorf("reading manifest of %s: %w", dir, err)
	}
	node.Name = lib.Name
	node.Version = lib.Version

	for _, filter := range lib.Dependencies.Filters() {
		child := &Node{Name: filter.Name, Requirement: filter.Version}

		var childDir string
		var found bool
		if filter.IsDirect() {
			child.Requirement = ""
			childDir, found = s.InstalledDir(filter.Name, "", filter.Version)
		} else {
			childDir, found = s.InstalledDir(filter.Name, filter.Version, "")
		}

		if found {
			if _, err := s.buildNode(child, childDir, seen); err != nil {
				return nil, err
			}
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}

// Flatten returns the installed nodes of a tree with dependencies before
// their dependents, each directory once.
func Flatten(root *Node) []*Node {
	seen := make(map[string]bool)
	var result []*Node
	flattenRecursive(root, seen, &result)
	return result
}

func flattenRecursive(node *Node, seen map[string]bool, result *[]*Node) {
	if node == nil || node.Deduped || !node.Installed || seen[node.Dir] {
		return
	}

	for _, child := range node.Children {
		flattenRecursive(child, seen, result)
	}

	if !seen[node.Dir] {
		seen[node.Dir] = true
		*result = append(*result, node)
	}
}
