package service

import (
	"Linkboard/internal/repository"
	"Linkboard/internal/testutil"
	"testing"
	"time"

	"gorm.io/gorm"
)

type testServices struct {
	db       *gorm.DB
	linkRepo repository.LinkRepo
	userRepo repository.UserRepo
	links    LinkService
	credits  CreditService
	access   AccessService
}

const testAdminID = 1000

func newTestServices(t *testing.T) *testServices {
	t.Helper()

	db := testutil.NewTestDB(t)
	linkRepo := repository.NewLinkRepo(db)
	userRepo := repository.NewUserRepo(db)
	links := NewLinkService(linkRepo, 6*time.Hour)
	credits := NewCreditService(userRepo, 5, 3)
	access := NewAccessService(links, credits, NewAdminList([]uint64{testAdminID}), 1, 3, "linkboard_bot")

	return &testServices{
		db:       db,
		linkRepo: linkRepo,
		userRepo: userRepo,
		links:    links,
		credits:  credits,
		access:   access,
	}
}
