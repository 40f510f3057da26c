/*
Copyright 2019 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package managedfields_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigs.k8s.io/typed-merge/fieldpath"
	"sigs.k8s.io/typed-merge/managedfields"
)

func set(names ...string) *fieldpath.Set {
	s := &fieldpath.Set{}
	for _, n := range names {
		s.Insert(fieldpath.NewPath(fieldpath.Field(n)))
	}
	return s
}

func TestRegistryInsertAndGet(t *testing.T) {
	reg := managedfields.NewRegistry()
	key := managedfields.ManagerKey{Name: "ctl", Operation: managedfields.Update}
	require.NoError(t, reg.Insert(key, managedfields.VersionedSet{Set: set("replicas"), Version: "v1"}))
	vs, ok := reg.Get(key)
	require.True(t, ok)
	assert.True(t, vs.Set.Has(fieldpath.NewPath(fieldpath.Field("replicas"))))
}

func TestRegistryOneApplyOneUpdatePerManager(t *testing.T) {
	reg := managedfields.NewRegistry()
	name := "ctl"
	require.NoError(t, reg.Insert(managedfields.ManagerKey{Name: name, Operation: managedfields.Apply}, managedfields.VersionedSet{Set: set("a"), Version: "v1", Applied: true}))
	require.NoError(t, reg.Insert(managedfields.ManagerKey{Name: name, Operation: managedfields.Update}, managedfields.VersionedSet{Set: set("b"), Version: "v1"}))
	assert.Equal(t, 2, reg.Len())
}

func TestRegistryRejectsOverlongManagerName(t *testing.T) {
	reg := managedfields.NewRegistry()
	reg.MaxManagerNameLength = 4
	err := reg.Insert(managedfields.ManagerKey{Name: "toolong", Operation: managedfields.Update}, managedfields.VersionedSet{Set: set("a")})
	assert.Error(t, err)
}

func TestRegistryEvictsOldestUpdateWhenFull(t *testing.T) {
	reg := managedfields.NewRegistry()
	reg.MaxManagers = 2
	require.NoError(t, reg.Insert(managedfields.ManagerKey{Name: "a", Operation: managedfields.Update}, managedfields.VersionedSet{Set: set("x")}))
	require.NoError(t, reg.Insert(managedfields.ManagerKey{Name: "b", Operation: managedfields.Update}, managedfields.VersionedSet{Set: set("y")}))
	require.NoError(t, reg.Insert(managedfields.ManagerKey{Name: "c", Operation: managedfields.Update}, managedfields.VersionedSet{Set: set("z")}))
	assert.Equal(t, 2, reg.Len())
	_, ok := reg.Get(managedfields.ManagerKey{Name: "a", Operation: managedfields.Update})
	assert.False(t, ok, "oldest Update entry should have been evicted")
}

func TestRegistryNeverAutoEvictsApply(t *testing.T) {
	reg := managedfields.NewRegistry()
	reg.MaxManagers = 1
	require.NoError(t, reg.Insert(managedfields.ManagerKey{Name: "a", Operation: managedfields.Apply}, managedfields.VersionedSet{Set: set("x"), Applied: true}))
	err := reg.Insert(managedfields.ManagerKey{Name: "b", Operation: managedfields.Apply}, managedfields.VersionedSet{Set: set("y"), Applied: true})
	assert.Error(t, err, "an Apply entry should never be auto-evicted to make room")
}

func TestRegistryDifferenceIsSymmetric(t *testing.T) {
	a := managedfields.NewRegistry()
	b := managedfields.NewRegistry()
	key := managedfields.ManagerKey{Name: "m", Operation: managedfields.Update}
	require.NoError(t, a.Insert(key, managedfields.VersionedSet{Set: set("x", "y")}))
	require.NoError(t, b.Insert(key, managedfields.VersionedSet{Set: set("y", "z")}))
	diff := a.Difference(b)
	d := diff[key]
	require.NotNil(t, d)
	assert.True(t, d.Has(fieldpath.NewPath(fieldpath.Field("x"))))
	assert.True(t, d.Has(fieldpath.NewPath(fieldpath.Field("z"))))
	assert.False(t, d.Has(fieldpath.NewPath(fieldpath.Field("y"))))
}

func TestRegistryEqualsRequiresVersionAndAppliedMatch(t *testing.T) {
	a := managedfields.NewRegistry()
	b := managedfields.NewRegistry()
	key := managedfields.ManagerKey{Name: "m", Operation: managedfields.Apply}
	require.NoError(t, a.Insert(key, managedfields.VersionedSet{Set: set("x"), Version: "v1", Applied: true}))
	require.NoError(t, b.Insert(key, managedfields.VersionedSet{Set: set("x"), Version: "v2", Applied: true}))
	assert.False(t, a.Equals(b))
}

func TestManagedFieldsWireRoundTrip(t *testing.T) {
	reg := managedfields.NewRegistry()
	require.NoError(t, reg.Insert(managedfields.ManagerKey{Name: "b-manager", Operation: managedfields.Apply}, managedfields.VersionedSet{Set: set("spec"), Version: "v1", Applied: true}))
	require.NoError(t, reg.Insert(managedfields.ManagerKey{Name: "a-manager", Operation: managedfields.Update}, managedfields.VersionedSet{Set: set("status"), Version: "v1"}))

	records := managedfields.FromRegistry(reg)
	require.Len(t, records, 2)
	assert.Equal(t, "a-manager", records[0].Manager, "records should be sorted by manager name")

	data, err := managedfields.EncodeRecords(records)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"fieldsType":"FieldsV1"`)

	back, err := managedfields.DecodeRecords(data)
	require.NoError(t, err)
	reg2, err := managedfields.ToRegistry(back)
	require.NoError(t, err)
	assert.True(t, reg.Equals(reg2))
}

func TestDecodeRecordsRejectsUnknownFieldsType(t *testing.T) {
	_, err := managedfields.DecodeRecords([]byte(fmt.Sprintf(`[{"manager":"m","operation":"Apply","apiVersion":"v1","fieldsType":"bogus","fieldsV1":{}}]`)))
	assert.Error(t, err)
}
