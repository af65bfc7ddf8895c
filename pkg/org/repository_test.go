package org

import (
	"testing"

	"github.com/harryhq/mail-manager/pkg/model"
	"github.com/stretchr/testify/assert"
)

func TestFindAllFromUser(t *testing.T) {
	t.Run("CollapsesMemberAndAdminOrgs", func(t *testing.T) {
		user := &model.User{
			Orgs:      []model.Org{{Name: "sales"}, {Name: "support"}},
			AdminOrgs: []model.Org{{Name: "sales"}},
		}

		orgs := findAllFromUser(user)

		assert.Equal(t, []model.Org{{Name: "sales"}, {Name: "support"}}, orgs)
	})

	t.Run("SortsOrgsByName", func(t *testing.T) {
		user := &model.User{
			Orgs: []model.Org{{Name: "support"}, {Name: "engineering"}, {Name: "sales"}},
		}

		orgs := findAllFromUser(user)

		assert.Equal(t, []model.Org{{Name: "engineering"}, {Name: "sales"}, {Name: "support"}}, orgs)
	})

	t.Run("NoOrgsIsEmpty", func(t *testing.T) {
		orgs := findAllFromUser(&model.User{})

		assert.Empty(t, orgs)
	})
}
