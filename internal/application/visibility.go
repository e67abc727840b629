package application

import (
	"github.com/ericfisherdev/credpanel/internal/domain/model"
)

// CanView reports whether userID may read cred. Legacy credentials are
// readable by everyone; restricted ones by the owner and listed viewers.
func CanView(cred *model.Credential, userID string) bool {
	if cred.IsLegacy {
		return true
	}
	return cred.IsOwnedBy(userID) || cred.HasViewer(userID)
}

// CanModifyVisibility reports whether userID may change who can see cred.
// An ownerless credential can be claimed by anyone who can view it.
func CanModifyVisibility(cred *model.Credential, userID string) bool {
	if cred.OwnerID == nil {
		return CanView(cred, userID)
	}
	return *cred.OwnerID == userID
}

// CanDelete reports whether userID may delete cred.
func CanDelete(cred *model.Credential, userID string) bool {
	return CanView(cred, userID) && (cred.IsLegacy || cred.IsOwnedBy(userID))
}

// applyVisibility moves cred to the state implied by viewerIDs. An empty
// request makes the credential legacy and drops every viewer while keeping
// the owner. Any non-empty request makes it restricted with exactly
// viewerIDs, which must already be filtered to existing users; an unset
// owner becomes actorID.
//
// requested is the number of ids the caller supplied before filtering, so a
// list of only unknown users still restricts the credential to its owner.
func applyVisibility(cred *model.Credential, actorID string, requested int, viewerIDs []string) {
	if requested == 0 {
		cred.IsLegacy = true
		cred.ViewerIDs = nil
		return
	}

	if cred.OwnerID == nil {
		owner := actorID
		cred.OwnerID = &owner
	}
	cred.IsLegacy = false
	cred.ViewerIDs = viewerIDs
}
