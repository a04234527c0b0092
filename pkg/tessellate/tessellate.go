// Package tessellate walks an assembly tree and produces triangle meshes
// using a geometry kernel. One mesh is produced per selected part.
package tessellate

import (
	"fmt"
	"sync"

	"github.com/chazu/stairkit/pkg/assembly"
	"github.com/chazu/stairkit/pkg/kernel"
)

// Tessellate meshes every part of t that sel accepts, in tree order. Up to
// k.Parallel() parts are evaluated and meshed at once. The tessellator is
// read-only and never mutates the tree. cells <= 0 selects the kernel
// default resolution.
func Tessellate(t *assembly.Tree, k kernel.Kernel, sel assembly.Selector, cells int) ([]*kernel.Mesh, error) {
	if t == nil {
		return nil, nil
	}
	parts := t.Select(sel)
	meshes := make([]*kernel.Mesh, len(parts))
	if len(parts) == 0 {
		return meshes, nil
	}

	workers := min(k.Parallel(), len(parts))
	jobs := make(chan int)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		errIndex = len(parts)
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				m, err := MeshPart(k, parts[i], cells)
				if err != nil {
					mu.Lock()
					// Report the earliest failing part so the error does not
					// depend on scheduling.
					if i < errIndex {
						firstErr, errIndex = err, i
					}
					mu.Unlock()
					continue
				}
				meshes[i] = m
			}
		}()
	}
	for i := range parts {
		mu.Lock()
		stop := firstErr != nil && errIndex < i
		mu.Unlock()
		if stop {
			break
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, fmt.Errorf("tessellate: %w", firstErr)
	}
	return meshes, nil
}

// MeshPart evaluates one part and meshes it, tagging the mesh with the
// node name and group.
func MeshPart(k kernel.Kernel, p assembly.Part, cells int) (*kernel.Mesh, error) {
	s, err := assembly.MaterializeNode(k, p)
	if err != nil {
		return nil, err
	}
	mesh, err := k.ToMesh(s, cells)
	if err != nil {
		return nil, fmt.Errorf("ToMesh failed for %s: %w", p.Node.Name, err)
	}
	mesh.PartName = p.Node.Name
	mesh.Group = p.Node.Group
	return mesh, nil
}
