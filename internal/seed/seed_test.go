package seed_test

import (
	"context"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/frahmantamala/asset-lifecycle/internal/asset"
	assetPostgres "github.com/frahmantamala/asset-lifecycle/internal/asset/postgres"
	"github.com/frahmantamala/asset-lifecycle/internal/assignment"
	assignmentPostgres "github.com/frahmantamala/asset-lifecycle/internal/assignment/postgres"
	"github.com/frahmantamala/asset-lifecycle/internal/audit"
	auditPostgres "github.com/frahmantamala/asset-lifecycle/internal/audit/postgres"
	"github.com/frahmantamala/asset-lifecycle/internal/auth"
	authPostgres "github.com/frahmantamala/asset-lifecycle/internal/auth/postgres"
	"github.com/frahmantamala/asset-lifecycle/internal/core/common/database/dbtest"
	"github.com/frahmantamala/asset-lifecycle/internal/core/enums"
	"github.com/frahmantamala/asset-lifecycle/internal/employee"
	employeePostgres "github.com/frahmantamala/asset-lifecycle/internal/employee/postgres"
	"github.com/frahmantamala/asset-lifecycle/internal/location"
	locationPostgres "github.com/frahmantamala/asset-lifecycle/internal/location/postgres"
	"github.com/frahmantamala/asset-lifecycle/internal/seed"
	"github.com/frahmantamala/asset-lifecycle/pkg/logger"
)

const fixtures = `
roles:
  - user_id: idp|alice
    roles: [admin]
locations:
  - ref: hq
    name: Head Office
    type: office
employees:
  - ref: doe
    first_name: Jane
    last_name: Doe
    badge_id: B-100
    start_date: "2023-02-01"
  - first_name: Max
    last_name: Mustermann
    start_date: "2023-05-15"
assets:
  - ref: lap1
    asset_tag: LAP-001
    type: laptop
    manufacturer: Lenovo
    model: T14
    serial_number: SN-001
    ownership: OrgA
    security_compliant: true
    location: hq
  - asset_tag: MON-001
    type: monitor
    manufacturer: Dell
    model: U2720Q
    serial_number: SN-002
    ownership: OrgB
assignments:
  - asset: lap1
    employee: doe
    start_date: "2024-01-10"
    accept: true
  - asset: MON-001
    employee: Mustermann
    start_date: "2024-01-11"
`

var _ = Describe("Seed", func() {
	var (
		ctx         context.Context
		db          *gorm.DB
		services    seed.Services
		assignments *assignment.Service
		auditSvc    *audit.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		db, err = dbtest.Open()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = dbtest.Close(db) })

		lg := logger.Discard()
		assignments = assignment.NewService(assignmentPostgres.NewAssignmentRepository(db), nil, lg)
		auditSvc = audit.NewService(auditPostgres.NewAuditRepository(db), lg)
		services = seed.Services{
			Roles:       auth.NewService(nil, authPostgres.NewRoleRepository(db), lg),
			Locations:   location.NewService(locationPostgres.NewLocationRepository(db), nil, lg),
			Employees:   employee.NewService(employeePostgres.NewEmployeeRepository(db), assignments, nil, lg),
			Assets:      asset.NewService(assetPostgres.NewAssetRepository(db), nil, lg),
			Assignments: assignments,
		}
	})

	It("writes every fixture through the services", func() {
		f, err := seed.Parse(strings.NewReader(fixtures))
		Expect(err).NotTo(HaveOccurred())

		res, err := seed.Apply(ctx, f, services, logger.Discard())
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal(seed.Result{Roles: 1, Locations: 1, Employees: 2, Assets: 2, Assignments: 2}))

		list, err := assignments.ListAssignments(ctx, assignment.ListFilter{})
		Expect(err).NotTo(HaveOccurred())
		Expect(list).To(HaveLen(2))

		statuses := map[enums.AssignmentStatus]int{}
		for _, a := range list {
			statuses[a.Status]++
		}
		Expect(statuses).To(Equal(map[enums.AssignmentStatus]int{
			enums.AssignmentActive:            1,
			enums.AssignmentPendingAcceptance: 1,
		}))
	})

	It("stamps the audit trail with the seeding user", func() {
		f, err := seed.Parse(strings.NewReader(fixtures))
		Expect(err).NotTo(HaveOccurred())
		_, err = seed.Apply(ctx, f, services, logger.Discard())
		Expect(err).NotTo(HaveOccurred())

		entries, err := auditSvc.List(ctx, audit.Filter{EntityType: string(audit.EntityAssignment)})
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).NotTo(BeEmpty())
		for _, e := range entries {
			Expect(e.UserID).To(Equal(seed.SystemUserID))
		}
	})

	It("rejects unknown keys", func() {
		_, err := seed.Parse(strings.NewReader("assets:\n  - asset_tag: X\n    colour: red\n"))
		Expect(err).To(MatchError(ContainSubstring("colour")))
	})

	It("stops at a dangling reference", func() {
		f, err := seed.Parse(strings.NewReader(`
assignments:
  - asset: nope
    employee: doe
    start_date: "2024-01-10"
`))
		Expect(err).NotTo(HaveOccurred())

		res, err := seed.Apply(ctx, f, services, logger.Discard())
		Expect(err).To(MatchError(ContainSubstring(`unknown asset "nope"`)))
		Expect(res.Assignments).To(BeZero())
	})

	It("surfaces guard failures from the engine", func() {
		f, err := seed.Parse(strings.NewReader(fixtures))
		Expect(err).NotTo(HaveOccurred())
		f.Assignments = append(f.Assignments, seed.Assignment{Asset: "lap1", Employee: "Mustermann", StartDate: "2024-02-01"})

		_, err = seed.Apply(ctx, f, services, logger.Discard())
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("lap1 to Mustermann"))
	})
})
