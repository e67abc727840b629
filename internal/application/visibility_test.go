package application

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ericfisherdev/credpanel/internal/domain/model"
)

func ptr(s string) *string { return &s }

func TestCanView(t *testing.T) {
	restricted := &model.Credential{OwnerID: ptr("u1"), ViewerIDs: []string{"u2"}}
	legacy := &model.Credential{IsLegacy: true, OwnerID: ptr("u1")}
	ownerless := &model.Credential{IsLegacy: true}

	tests := []struct {
		name string
		cred *model.Credential
		user string
		want bool
	}{
		{name: "restricted owner", cred: restricted, user: "u1", want: true},
		{name: "restricted viewer", cred: restricted, user: "u2", want: true},
		{name: "restricted stranger", cred: restricted, user: "u3", want: false},
		{name: "legacy anyone", cred: legacy, user: "u3", want: true},
		{name: "ownerless legacy anyone", cred: ownerless, user: "u9", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanView(tt.cred, tt.user))
		})
	}
}

func TestCanModifyVisibility(t *testing.T) {
	restricted := &model.Credential{OwnerID: ptr("u1"), ViewerIDs: []string{"u2"}}
	ownedLegacy := &model.Credential{IsLegacy: true, OwnerID: ptr("u1")}
	ownerless := &model.Credential{IsLegacy: true}

	assert.True(t, CanModifyVisibility(restricted, "u1"))
	assert.False(t, CanModifyVisibility(restricted, "u2"), "viewers cannot re-share")
	assert.False(t, CanModifyVisibility(restricted, "u3"))
	assert.True(t, CanModifyVisibility(ownedLegacy, "u1"))
	assert.False(t, CanModifyVisibility(ownedLegacy, "u2"))
	assert.True(t, CanModifyVisibility(ownerless, "anyone"), "ownerless credentials are claimable")
}

func TestCanDelete(t *testing.T) {
	restricted := &model.Credential{OwnerID: ptr("u1"), ViewerIDs: []string{"u2"}}
	legacy := &model.Credential{IsLegacy: true, OwnerID: ptr("u1")}

	assert.True(t, CanDelete(restricted, "u1"))
	assert.False(t, CanDelete(restricted, "u2"))
	assert.False(t, CanDelete(restricted, "u3"))
	assert.True(t, CanDelete(legacy, "u2"))
	assert.True(t, CanDelete(&model.Credential{IsLegacy: true}, "u2"))
}

func TestApplyVisibility(t *testing.T) {
	t.Run("restrict claims ownerless credential", func(t *testing.T) {
		cred := &model.Credential{IsLegacy: true}
		applyVisibility(cred, "actor", 1, []string{"u2"})

		assert.False(t, cred.IsLegacy)
		assert.Equal(t, "actor", *cred.OwnerID)
		assert.Equal(t, []string{"u2"}, cred.ViewerIDs)
	})

	t.Run("restrict keeps existing owner", func(t *testing.T) {
		cred := &model.Credential{IsLegacy: true, OwnerID: ptr("u1")}
		applyVisibility(cred, "u1", 2, []string{"u2", "u3"})

		assert.Equal(t, "u1", *cred.OwnerID)
		assert.Equal(t, []string{"u2", "u3"}, cred.ViewerIDs)
	})

	t.Run("empty request returns to legacy and keeps owner", func(t *testing.T) {
		cred := &model.Credential{OwnerID: ptr("u1"), ViewerIDs: []string{"u2"}}
		applyVisibility(cred, "u1", 0, nil)

		assert.True(t, cred.IsLegacy)
		assert.Empty(t, cred.ViewerIDs)
		assert.Equal(t, "u1", *cred.OwnerID)
	})

	t.Run("only unknown ids restricts to owner", func(t *testing.T) {
		cred := &model.Credential{IsLegacy: true, OwnerID: ptr("u1")}
		applyVisibility(cred, "u1", 2, []string{})

		assert.False(t, cred.IsLegacy)
		assert.Empty(t, cred.ViewerIDs)
		assert.NotNil(t, cred.OwnerID)
	})
}
