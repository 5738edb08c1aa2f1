package main

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/Wodenvase/BharatLedger/internal/app"
	"github.com/Wodenvase/BharatLedger/internal/config"
	"github.com/Wodenvase/BharatLedger/internal/model"
	"github.com/Wodenvase/BharatLedger/internal/repository"
	"github.com/Wodenvase/BharatLedger/internal/service"
)

const (
	demoEmail    = "demo@bharatledger.com"
	demoPassword = "test123"
	demoName     = "Demo User"
)

type sampleTx struct {
	monthOffset int
	day         int
	description string
	amount      int64
	kind        model.TransactionType
	category    string
}

var sampleTransactions = []sampleTx{
	{0, 1, "Monthly Salary", 85000, model.TransactionTypeIncome, "Salary"},
	{0, 15, "Freelance Project Payment", 25000, model.TransactionTypeIncome, "Freelance"},
	{0, 5, "Rent Payment", 30000, model.TransactionTypeExpense, "Housing"},
	{0, 10, "Electricity Bill", 2500, model.TransactionTypeExpense, "Utilities"},
	{0, 3, "Grocery Shopping - BigBazaar", 4500, model.TransactionTypeExpense, "Groceries"},
	{0, 7, "Restaurant - Barbeque Nation", 2800, model.TransactionTypeExpense, "Food & Dining"},
	{0, 12, "Zomato Order", 650, model.TransactionTypeExpense, "Food & Dining"},
	{0, 8, "Uber Rides", 1200, model.TransactionTypeExpense, "Travel"},
	{0, 14, "Petrol - Indian Oil", 3500, model.TransactionTypeExpense, "Travel"},
	{0, 6, "Medical Checkup", 2500, model.TransactionTypeExpense, "Healthcare"},
	{0, 9, "Pharmacy - Apollo", 850, model.TransactionTypeExpense, "Healthcare"},
	{0, 11, "Movie Tickets - PVR", 1200, model.TransactionTypeExpense, "Entertainment"},
	{0, 13, "Netflix Subscription", 799, model.TransactionTypeExpense, "Entertainment"},
	{0, 4, "Amazon Purchase", 5400, model.TransactionTypeExpense, "Shopping"},
	{0, 16, "Flipkart Order", 3200, model.TransactionTypeExpense, "Shopping"},
	{-1, 1, "Monthly Salary", 85000, model.TransactionTypeIncome, "Salary"},
	{-1, 5, "Rent Payment", 30000, model.TransactionTypeExpense, "Housing"},
	{-1, 10, "Grocery Shopping", 5200, model.TransactionTypeExpense, "Groceries"},
	{-1, 15, "Credit Card Payment", 15000, model.TransactionTypeExpense, "Bills"},
}

var sampleAccounts = []struct {
	name      string
	connected bool
}{
	{"State Bank of India", true},
	{"HDFC Credit Card", true},
	{"Paytm Wallet", false},
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	logger := app.NewLogger(cfg)
	ctx := context.Background()

	db, err := app.OpenDB(ctx, cfg)
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer db.Close()

	if err := repository.RunMigrations(db, logger); err != nil {
		logger.Fatalf("migrations: %v", err)
	}

	userRepo := repository.NewUserRepository(db, logger)
	accountRepo := repository.NewAccountRepository(db, logger)
	transactionRepo := repository.NewTransactionRepository(db, logger)

	user, err := userRepo.FindByEmail(ctx, demoEmail)
	switch {
	case errors.Is(err, model.ErrUserNotFound):
		hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), service.PasswordCost)
		if err != nil {
			logger.Fatalf("hash password: %v", err)
		}
		now := time.Now()
		user = &model.User{
			ID:        uuid.New(),
			Email:     demoEmail,
			Name:      demoName,
			Password:  string(hash),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := userRepo.Create(ctx, user); err != nil {
			logger.Fatalf("create demo user: %v", err)
		}
		logger.WithField("email", demoEmail).Info("demo user created")
	case err != nil:
		logger.Fatalf("find demo user: %v", err)
	default:
		logger.WithField("email", demoEmail).Info("demo user exists")
	}

	accounts, err := accountRepo.GetUserAccounts(ctx, user.ID)
	if err != nil {
		logger.Fatalf("list accounts: %v", err)
	}
	if len(accounts) == 0 {
		now := time.Now()
		for _, a := range sampleAccounts {
			account := &model.Account{
				ID:         uuid.New(),
				UserID:     user.ID,
				SourceName: a.name,
				Connected:  a.connected,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := accountRepo.Create(ctx, account); err != nil {
				logger.Fatalf("create account %s: %v", a.name, err)
			}
		}
		logger.WithField("count", len(sampleAccounts)).Info("accounts created")
	}

	count, err := transactionRepo.CountAll(ctx, user.ID)
	if err != nil {
		logger.Fatalf("count transactions: %v", err)
	}
	if count > 0 {
		logger.WithField("count", count).Info("demo transactions already present")
		return
	}

	now := time.Now()
	transactions := make([]model.Transaction, 0, len(sampleTransactions))
	for _, s := range sampleTransactions {
		transactions = append(transactions, model.Transaction{
			ID:          uuid.New(),
			UserID:      user.ID,
			Date:        time.Date(now.Year(), now.Month()+time.Month(s.monthOffset), s.day, 0, 0, 0, 0, time.Local),
			Description: s.description,
			Amount:      decimal.NewFromInt(s.amount),
			Type:        s.kind,
			Category:    s.category,
			CreatedAt:   now,
		})
	}
	if err := transactionRepo.CreateBatch(ctx, transactions); err != nil {
		logger.Fatalf("create transactions: %v", err)
	}

	logger.WithFields(logrus.Fields{
		"transactions": len(transactions),
		"email":        demoEmail,
		"password":     demoPassword,
	}).Info("seed complete")
}
