// Command generate_demo creates a CMS database with sample accounts, books
// in every approval state and readers on subscription plans.
// Usage: go run ./cmd/generate_demo [--db path/to/demo.db]
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/booklify/admin/internal/approval"
	"github.com/booklify/admin/internal/config"
	"github.com/booklify/admin/internal/database"
	"github.com/booklify/admin/internal/database/books"
	"github.com/booklify/admin/internal/database/categories"
	"github.com/booklify/admin/internal/database/subscriptions"
	"github.com/booklify/admin/internal/database/users"
	"github.com/booklify/admin/internal/entities"
	"github.com/booklify/admin/internal/entrypoint"
	"github.com/booklify/admin/internal/logging"
)

const (
	defaultDemoDatabasePath = "./demo/demo.db"
	demoPassword            = "booklify-demo-password"
)

// demoStep is one action in a book's review history.
type demoStep struct {
	tag     approval.Tag
	message string
	after   time.Duration
}

type demoBook struct {
	book     entities.Book
	category string
	history  []demoStep
}

type demoReader struct {
	user    entities.User
	plan    string
	request subscriptions.ManageRequest
}

func main() {
	if err := newCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:           "generate_demo",
		Short:         "Create a demo CMS database",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Setup(config.Log{Level: "info", Format: "console"})
			return generate(dbPath)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", defaultDemoDatabasePath, "path to the demo database file")
	return cmd
}

// generate replaces the database at dbPath with the demo data set.
func generate(dbPath string) (err error) {
	log.Info().Str("path", dbPath).Msg("Generating demo database")

	if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing demo database: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("create demo directory: %w", err)
	}

	db, err := database.NewDatabase(dbPath)
	if err != nil {
		return fmt.Errorf("create database: %w", err)
	}
	defer func() {
		err = errors.Join(err, db.Close())
	}()

	authService, err := entrypoint.NewAuthService(db, config.Auth{BcryptCost: 10})
	if err != nil {
		return fmt.Errorf("create auth service: %w", err)
	}
	if _, err := authService.CreateUser("admin", "admin@booklify.local", demoPassword, entities.UserRoleAdmin); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	staff, err := authService.CreateUser("staff", "staff@booklify.local", demoPassword, entities.UserRoleStaff)
	if err != nil {
		return fmt.Errorf("create staff: %w", err)
	}

	if err := seedBooks(db, staff.ID); err != nil {
		return err
	}
	if err := seedSubscriptions(db, time.Now()); err != nil {
		return err
	}

	log.Info().Str("password", demoPassword).Msg("Demo database generated, sign in as admin or staff")
	return nil
}

func seedBooks(db *database.Database, ownerID uint) error {
	cats, err := categories.NewRepository(db.DB).List(false)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	categoryIDs := make(map[string]uint, len(cats))
	for _, c := range cats {
		categoryIDs[c.Name] = c.ID
	}

	repo := books.NewRepository(db.DB)
	start := time.Now().Add(-72 * time.Hour)
	for _, demo := range demoBooks() {
		book := demo.book
		book.OwnerID = ownerID
		book.CategoryID = categoryIDs[demo.category]
		if err := repo.CreateBook(&book); err != nil {
			return fmt.Errorf("save book %q: %w", book.Title, err)
		}

		saved := &book
		for _, step := range demo.history {
			at := start.Add(step.after)
			saved, err = repo.ApplyApproval(book.ID, func(cur approval.Status, logText string) (approval.Status, string, error) {
				return applyStep(cur, logText, step, at)
			})
			if err != nil {
				return fmt.Errorf("record %s history for %q: %w", step.tag, book.Title, err)
			}
		}
		log.Info().Str("title", book.Title).Stringer("approval", saved.ApprovalStatus).Int("entries", len(demo.history)).Msg("Saved")
	}
	return nil
}

func seedSubscriptions(db *database.Database, now time.Time) error {
	subs := subscriptions.NewRepository(db.DB)
	planIDs := make(map[string]uint)
	for _, in := range demoPlans() {
		plan, err := subs.CreatePlan(in)
		if err != nil {
			return fmt.Errorf("create plan %q: %w", *in.Name, err)
		}
		planIDs[plan.Name] = plan.ID
	}

	userRepo := users.NewRepository(db.DB)
	for _, demo := range demoReaders() {
		user := demo.user
		user.Role = entities.UserRoleUser
		if err := userRepo.CreateUser(&user); err != nil {
			return fmt.Errorf("create reader %q: %w", user.Username, err)
		}
		if demo.plan == "" {
			continue
		}
		req := demo.request
		req.PlanID = planIDs[demo.plan]
		if _, err := subs.Manage(user.ID, req, now); err != nil {
			return fmt.Errorf("subscribe %q to %q: %w", user.Username, demo.plan, err)
		}
		log.Info().Str("reader", user.Username).Str("plan", demo.plan).Str("action", string(req.Action)).Msg("Subscribed")
	}
	return nil
}

func applyStep(status approval.Status, logText string, step demoStep, at time.Time) (approval.Status, string, error) {
	switch step.tag {
	case approval.TagResubmitted:
		return approval.Resubmit(status, logText, step.message, at)
	case approval.TagNote:
		logText, err := approval.AddNote(logText, step.message, at)
		return status, logText, err
	case approval.TagApproved:
		return approval.ChangeStatus(status, logText, approval.StatusApproved, step.message, at)
	default:
		return approval.ChangeStatus(status, logText, approval.StatusRejected, step.message, at)
	}
}

func demoBooks() []demoBook {
	return []demoBook{
		{
			book:     entities.Book{Title: "Truyện Kiều", Author: "Nguyễn Du", PageCount: 320, Status: entities.BookStatusActive},
			category: "Văn học",
			history: []demoStep{
				{tag: approval.TagApproved, after: 2 * time.Hour},
			},
		},
		{
			book:     entities.Book{Title: "Số đỏ", Author: "Vũ Trọng Phụng", PageCount: 240},
			category: "Văn học",
			history: []demoStep{
				{tag: approval.TagRejected, message: "Ảnh bìa bị mờ", after: time.Hour},
			},
		},
		{
			book:     entities.Book{Title: "Dế Mèn phiêu lưu ký", Author: "Tô Hoài", PageCount: 150},
			category: "Thiếu nhi",
			history: []demoStep{
				{tag: approval.TagRejected, message: "Thiếu mục lục", after: time.Hour},
				{tag: approval.TagResubmitted, message: "Đã bổ sung mục lục", after: 5 * time.Hour},
			},
		},
		{
			book:     entities.Book{Title: "Nhà giả kim", Author: "Paulo Coelho", PageCount: 228, IsPremium: true, Status: entities.BookStatusActive},
			category: "Kỹ năng sống",
			history: []demoStep{
				{tag: approval.TagNote, message: "Kiểm tra bản quyền dịch", after: 30 * time.Minute},
				{tag: approval.TagApproved, message: "Bản quyền hợp lệ", after: 26 * time.Hour},
			},
		},
		{
			book:     entities.Book{Title: "Kinh tế học vĩ mô", Author: "N. Gregory Mankiw", PageCount: 600},
			category: "Kinh tế",
		},
	}
}

func demoPlans() []subscriptions.PlanInput {
	plan := func(name, description string, price int64, days, order int, popular bool, features ...string) subscriptions.PlanInput {
		return subscriptions.PlanInput{
			Name:         &name,
			Description:  &description,
			Price:        &price,
			DurationDays: &days,
			DisplayOrder: &order,
			IsPopular:    &popular,
			Features:     &features,
		}
	}
	return []subscriptions.PlanInput{
		plan("Gói tháng", "Đọc không giới hạn trong 30 ngày", 49000, 30, 1, false, "Sách premium", "Không quảng cáo"),
		plan("Gói quý", "Tiết kiệm 15% so với gói tháng", 125000, 90, 2, true, "Sách premium", "Không quảng cáo", "Tải sách đọc offline"),
		plan("Gói năm", "Tiết kiệm 30% so với gói tháng", 399000, 365, 3, false, "Sách premium", "Không quảng cáo", "Tải sách đọc offline", "Sách nói"),
	}
}

func demoReaders() []demoReader {
	return []demoReader{
		{
			user:    entities.User{Username: "lan.nguyen", Email: "lan.nguyen@gmail.com", FullName: "Nguyễn Thị Lan", Phone: "0912345678"},
			plan:    "Gói quý",
			request: subscriptions.ManageRequest{Action: subscriptions.ActionResubscribe, PaymentMethod: "MoMo", TransactionID: "MOMO-240611-0001"},
		},
		{
			user:    entities.User{Username: "minh.tran", Email: "minh.tran@gmail.com", FullName: "Trần Văn Minh"},
			plan:    "Gói tháng",
			request: subscriptions.ManageRequest{Action: subscriptions.ActionResubscribe, PaymentMethod: "VNPay"},
		},
		{
			user:    entities.User{Username: "hoa.le", Email: "hoa.le@gmail.com", FullName: "Lê Thu Hoa"},
			plan:    "Gói tháng",
			request: subscriptions.ManageRequest{Action: subscriptions.ActionGift},
		},
		{
			user: entities.User{Username: "khoa.pham", Email: "khoa.pham@gmail.com", FullName: "Phạm Đăng Khoa"},
		},
	}
}
