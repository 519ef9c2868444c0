package authorization_test

import (
	"testing"
	"time"

	"github.com/frahmantamala/access-management/internal/authorization"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestAuthorization(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Authorization Suite")
}

var _ = Describe("PermissionFlags", func() {
	Describe("Validate", func() {
		It("accepts view alone", func() {
			flags := authorization.PermissionFlags{View: true}
			Expect(flags.Validate()).To(Succeed())
		})

		It("accepts a full flag set", func() {
			flags := authorization.PermissionFlags{
				View: true, Create: true, Edit: true, Delete: true,
				Export: true, Print: true, Approve: true,
			}
			Expect(flags.Validate()).To(Succeed())
		})

		It("rejects an action flag without view", func() {
			flags := authorization.PermissionFlags{Create: true}
			Expect(flags.Validate()).To(HaveOccurred())
		})

		It("rejects delete without edit", func() {
			flags := authorization.PermissionFlags{View: true, Delete: true}
			Expect(flags.Validate()).To(HaveOccurred())
		})

		It("accepts delete with edit", func() {
			flags := authorization.PermissionFlags{View: true, Edit: true, Delete: true}
			Expect(flags.Validate()).To(Succeed())
		})
	})

	Describe("Or", func() {
		It("unions flag sets per flag", func() {
			a := authorization.PermissionFlags{View: true, Create: true}
			b := authorization.PermissionFlags{View: true, Export: true}

			merged := a.Or(b)
			Expect(merged.View).To(BeTrue())
			Expect(merged.Create).To(BeTrue())
			Expect(merged.Export).To(BeTrue())
			Expect(merged.Delete).To(BeFalse())
		})
	})
})

var _ = Describe("AggregateGrants", func() {
	It("ORs flags across roles for the same menu", func() {
		grants := []authorization.MenuGrant{
			{RoleID: 1, MenuID: 10, Flags: authorization.PermissionFlags{View: true, Create: true}},
			{RoleID: 2, MenuID: 10, Flags: authorization.PermissionFlags{View: true, Approve: true}},
		}

		aggregated := authorization.AggregateGrants(grants)
		Expect(aggregated).To(HaveLen(1))
		Expect(aggregated[10].Flags.Create).To(BeTrue())
		Expect(aggregated[10].Flags.Approve).To(BeTrue())
		Expect(aggregated[10].Flags.Delete).To(BeFalse())
	})

	It("never produces an intersection", func() {
		// One role grants everything, the other almost nothing. The union
		// must carry every flag the stronger role holds.
		grants := []authorization.MenuGrant{
			{RoleID: 1, MenuID: 10, Flags: authorization.PermissionFlags{View: true}},
			{RoleID: 2, MenuID: 10, Flags: authorization.PermissionFlags{
				View: true, Create: true, Edit: true, Delete: true,
				Export: true, Print: true, Approve: true,
			}},
		}

		agg := authorization.AggregateGrants(grants)[10]
		Expect(agg.Flags).To(Equal(authorization.PermissionFlags{
			View: true, Create: true, Edit: true, Delete: true,
			Export: true, Print: true, Approve: true,
		}))
	})

	It("keeps menus independent of each other", func() {
		grants := []authorization.MenuGrant{
			{RoleID: 1, MenuID: 10, Flags: authorization.PermissionFlags{View: true, Edit: true}},
			{RoleID: 1, MenuID: 11, Flags: authorization.PermissionFlags{View: true}},
		}

		aggregated := authorization.AggregateGrants(grants)
		Expect(aggregated[10].Flags.Edit).To(BeTrue())
		Expect(aggregated[11].Flags.Edit).To(BeFalse())
	})

	Describe("extra permissions payload", func() {
		It("takes the most recently created non-empty payload", func() {
			older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
			newer := older.Add(time.Hour)

			grants := []authorization.MenuGrant{
				{RoleID: 1, MenuID: 10, Flags: authorization.PermissionFlags{View: true},
					ExtraPermissions: `{"limit":10}`, CreatedAt: older},
				{RoleID: 2, MenuID: 10, Flags: authorization.PermissionFlags{View: true},
					ExtraPermissions: `{"limit":50}`, CreatedAt: newer},
			}

			agg := authorization.AggregateGrants(grants)[10]
			Expect(agg.ExtraPermissions).To(Equal(`{"limit":50}`))
			Expect(agg.ExtraPermissionsMap()).To(HaveKeyWithValue("limit", float64(50)))
		})

		It("ignores empty payloads regardless of order", func() {
			older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
			newer := older.Add(time.Hour)

			grants := []authorization.MenuGrant{
				{RoleID: 1, MenuID: 10, Flags: authorization.PermissionFlags{View: true},
					ExtraPermissions: `{"limit":10}`, CreatedAt: older},
				{RoleID: 2, MenuID: 10, Flags: authorization.PermissionFlags{View: true},
					CreatedAt: newer},
			}

			agg := authorization.AggregateGrants(grants)[10]
			Expect(agg.ExtraPermissions).To(Equal(`{"limit":10}`))
		})

		It("decodes malformed payloads to nil instead of failing", func() {
			grants := []authorization.MenuGrant{
				{RoleID: 1, MenuID: 10, Flags: authorization.PermissionFlags{View: true},
					ExtraPermissions: `{not json`},
			}

			agg := authorization.AggregateGrants(grants)[10]
			Expect(agg.ExtraPermissionsMap()).To(BeNil())
		})
	})
})
