/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package sets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetBasics(t *testing.T) {
	set := NewSetByKeys("b", "a", "b")
	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Has("a"))
	assert.False(t, set.Has("c"))

	set.Insert("c").Delete("a")
	assert.Equal(t, []string{"b", "c"}, set.SortedList())
}

func TestNilSetHas(t *testing.T) {
	var set Set
	assert.False(t, set.Has("anything"))
}

func TestUnion(t *testing.T) {
	merged := NewSetByKeys("a", "b").Union(NewSetByKeys("b", "c"))
	assert.Equal(t, []string{"a", "b", "c"}, merged.SortedList())
}
