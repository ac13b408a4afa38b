package service_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet/internal/domain"
	"wallet/internal/repository"
	"wallet/internal/service"
	"wallet/internal/testutil"
)

type services struct {
	users        *service.UserService
	wallets      *service.WalletService
	transactions *service.TransactionService
}

func setupServices(t *testing.T, db *sql.DB) services {
	t.Helper()

	pool := repository.NewDB(db)
	walletRepo := repository.NewWalletRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	userRepo := repository.NewUserRepository(db)

	transactionSvc := service.NewTransactionService(transactionRepo, walletRepo)
	return services{
		users:        service.NewUserService(pool, userRepo, walletRepo),
		wallets:      service.NewWalletService(pool, walletRepo, transactionSvc),
		transactions: transactionSvc,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRegisterCreatesUserAndWallet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svcs := setupServices(t, db)
	ctx := context.Background()

	user, err := svcs.users.Register(ctx, service.RegisterInput{
		Email:     "new@test.com",
		FirstName: "New",
		LastName:  "User",
		Password:  "password123",
	})
	require.NoError(t, err)

	wallet, err := svcs.wallets.GetUserWallet(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, wallet.Activated)
	assert.Nil(t, wallet.Currency)
	assert.True(t, wallet.Balance.IsZero())

	_, err = svcs.users.Register(ctx, service.RegisterInput{
		Email:     "new@test.com",
		FirstName: "Other",
		LastName:  "User",
		Password:  "password123",
	})
	require.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestActivateWallet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svcs := setupServices(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "activate@test.com", "Ada", "Osei")
	testutil.SeedTestWallet(t, db, user.ID, "", "0")

	wallet, err := svcs.wallets.Activate(ctx, user.ID, domain.CurrencyRupee)
	require.NoError(t, err)
	assert.True(t, wallet.Activated)
	assert.Equal(t, domain.CurrencyRupee, *wallet.Currency)
	assert.True(t, wallet.Balance.IsZero())

	// Persisted, not just in memory.
	stored, err := svcs.wallets.GetUserWallet(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.Activated)
	assert.Equal(t, domain.CurrencyRupee, *stored.Currency)

	_, err = svcs.wallets.Activate(ctx, user.ID, domain.CurrencyYen)
	require.ErrorIs(t, err, domain.ErrAlreadyActivated)

	// Currency is immutable once set.
	stored, err = svcs.wallets.GetUserWallet(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CurrencyRupee, *stored.Currency)
}

func TestActivateWalletInvalidCurrency(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svcs := setupServices(t, db)

	user := testutil.SeedTestUser(t, db, "badcur@test.com", "Bo", "Lin")
	testutil.SeedTestWallet(t, db, user.ID, "", "0")

	_, err := svcs.wallets.Activate(context.Background(), user.ID, domain.Currency("DOGE"))
	require.ErrorIs(t, err, domain.ErrInvalidCurrency)
}

func TestConcurrentActivationsSerialize(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svcs := setupServices(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "eager@test.com", "Ea", "Ger")
	seeded := testutil.SeedTestWallet(t, db, user.ID, "", "0")

	// Two activations race; the row lock must let exactly one through.
	currencies := []domain.Currency{domain.CurrencyRupee, domain.CurrencyYen}
	errs := make([]error, len(currencies))
	var wg sync.WaitGroup
	for i, c := range currencies {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svcs.wallets.Activate(ctx, user.ID, c)
		}()
	}
	wg.Wait()

	var won []domain.Currency
	for i, err := range errs {
		if err == nil {
			won = append(won, currencies[i])
		} else {
			require.ErrorIs(t, err, domain.ErrAlreadyActivated)
		}
	}
	require.Len(t, won, 1)

	wallet, err := svcs.wallets.GetUserWallet(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, wallet.Currency)
	assert.Equal(t, won[0], *wallet.Currency)
	assert.True(t, wallet.Balance.IsZero())

	// A late activation attempt must not clobber money deposited since.
	_, _, err = svcs.wallets.Deposit(ctx, dec("5"), user.ID)
	require.NoError(t, err)
	_, err = svcs.wallets.Activate(ctx, user.ID, domain.CurrencyEuro)
	require.ErrorIs(t, err, domain.ErrAlreadyActivated)

	stored, err := svcs.wallets.GetUserWallet(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, won[0], *stored.Currency)
	assert.True(t, testutil.GetWalletBalance(t, db, seeded.ID).Equal(dec("5")))
}

func TestDeposit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svcs := setupServices(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "deposit@test.com", "Dee", "Pos")
	wallet := testutil.SeedTestWallet(t, db, user.ID, "RUPEE", "0")

	updated, txn, err := svcs.wallets.Deposit(ctx, dec("5"), user.ID)
	require.NoError(t, err)
	assert.True(t, updated.Balance.Equal(dec("5")))

	assert.Equal(t, domain.KindDeposit, txn.Kind)
	assert.Equal(t, wallet.ID, txn.FromWalletID)
	assert.Equal(t, wallet.ID, txn.ToWalletID)
	assert.True(t, txn.FromAmount.Equal(dec("5")))
	assert.Equal(t, domain.CurrencyRupee, txn.FromCurrency)
	assert.NotEqual(t, uuid.Nil, txn.ID)

	assert.True(t, testutil.GetWalletBalance(t, db, wallet.ID).Equal(dec("5")))
	assert.Equal(t, 1, testutil.CountTransactions(t, db, wallet.ID))
}

func TestDepositUnactivatedWallet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svcs := setupServices(t, db)

	user := testutil.SeedTestUser(t, db, "inactive@test.com", "In", "Active")
	wallet := testutil.SeedTestWallet(t, db, user.ID, "", "0")

	_, _, err := svcs.wallets.Deposit(context.Background(), dec("5"), user.ID)
	require.ErrorIs(t, err, domain.ErrNotActivated)
	assert.Equal(t, 0, testutil.CountTransactions(t, db, wallet.ID))
}

func TestDepositWalletNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svcs := setupServices(t, db)

	_, _, err := svcs.wallets.Deposit(context.Background(), dec("5"), uuid.New())
	require.ErrorIs(t, err, domain.ErrWalletNotFound)
}

func TestWithdraw(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svcs := setupServices(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "withdraw@test.com", "Wis", "Draw")
	wallet := testutil.SeedTestWallet(t, db, user.ID, "RUPEE", "5")

	updated, txn, err := svcs.wallets.Withdraw(ctx, dec("3"), user.ID)
	require.NoError(t, err)
	assert.True(t, updated.Balance.Equal(dec("2")))
	assert.Equal(t, domain.KindWithdraw, txn.Kind)
	assert.True(t, testutil.GetWalletBalance(t, db, wallet.ID).Equal(dec("2")))

	// Withdrawing the remaining balance down to exactly zero is allowed.
	updated, _, err = svcs.wallets.Withdraw(ctx, dec("2"), user.ID)
	require.NoError(t, err)
	assert.True(t, updated.Balance.IsZero())
}

func TestWithdrawInsufficientBalance(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svcs := setupServices(t, db)

	user := testutil.SeedTestUser(t, db, "broke@test.com", "No", "Funds")
	wallet := testutil.SeedTestWallet(t, db, user.ID, "RUPEE", "5")

	_, _, err := svcs.wallets.Withdraw(context.Background(), dec("5.01"), user.ID)
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	assert.True(t, testutil.GetWalletBalance(t, db, wallet.ID).Equal(dec("5")))
	assert.Equal(t, 0, testutil.CountTransactions(t, db, wallet.ID))
}

func TestTransferCrossCurrency(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svcs := setupServices(t, db)
	ctx := context.Background()

	sender := testutil.SeedTestUser(t, db, "sender@test.com", "Sen", "Der")
	recipient := testutil.SeedTestUser(t, db, "recipient@test.com", "Re", "Cip")
	senderWallet := testutil.SeedTestWallet(t, db, sender.ID, "RUPEE", "5")
	recipientWallet := testutil.SeedTestWallet(t, db, recipient.ID, "YEN", "0")

	updated, txn, err := svcs.wallets.Transfer(ctx, dec("2"), sender.ID, recipientWallet.ID)
	require.NoError(t, err)

	assert.True(t, updated.Balance.Equal(dec("3")))
	assert.True(t, testutil.GetWalletBalance(t, db, senderWallet.ID).Equal(dec("3")))
	assert.True(t, testutil.GetWalletBalance(t, db, recipientWallet.ID).Equal(dec("4")))

	assert.Equal(t, domain.KindTransfer, txn.Kind)
	assert.Equal(t, senderWallet.ID, txn.FromWalletID)
	assert.True(t, txn.FromAmount.Equal(dec("2")))
	assert.Equal(t, domain.CurrencyRupee, txn.FromCurrency)
	assert.Equal(t, recipientWallet.ID, txn.ToWalletID)
	assert.True(t, txn.ToAmount.Equal(dec("4")))
	assert.Equal(t, domain.CurrencyYen, txn.ToCurrency)

	// One record, visible from both sides.
	assert.Equal(t, 1, testutil.CountTransactions(t, db, senderWallet.ID))
	assert.Equal(t, 1, testutil.CountTransactions(t, db, recipientWallet.ID))
}

func TestTransferInsufficientBalanceIsAtomic(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svcs := setupServices(t, db)

	sender := testutil.SeedTestUser(t, db, "atomic-s@test.com", "At", "Omic")
	recipient := testutil.SeedTestUser(t, db, "atomic-r@test.com", "Un", "Touched")
	senderWallet := testutil.SeedTestWallet(t, db, sender.ID, "RUPEE", "5")
	recipientWallet := testutil.SeedTestWallet(t, db, recipient.ID, "YEN", "1")

	_, _, err := svcs.wallets.Transfer(context.Background(), dec("6"), sender.ID, recipientWallet.ID)
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	assert.True(t, testutil.GetWalletBalance(t, db, senderWallet.ID).Equal(dec("5")))
	assert.True(t, testutil.GetWalletBalance(t, db, recipientWallet.ID).Equal(dec("1")))
	assert.Equal(t, 0, testutil.CountTransactions(t, db, senderWallet.ID))
}

func TestTransferToOwnWallet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svcs := setupServices(t, db)

	user := testutil.SeedTestUser(t, db, "self@test.com", "My", "Self")
	wallet := testutil.SeedTestWallet(t, db, user.ID, "RUPEE", "100")

	_, _, err := svcs.wallets.Transfer(context.Background(), dec("1"), user.ID, wallet.ID)
	require.ErrorIs(t, err, domain.ErrSelfTransfer)
	assert.True(t, testutil.GetWalletBalance(t, db, wallet.ID).Equal(dec("100")))
}

func TestTransferTargetNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svcs := setupServices(t, db)

	user := testutil.SeedTestUser(t, db, "lost@test.com", "No", "Target")
	testutil.SeedTestWallet(t, db, user.ID, "RUPEE", "5")

	_, _, err := svcs.wallets.Transfer(context.Background(), dec("1"), user.ID, uuid.New())
	require.ErrorIs(t, err, domain.ErrWalletNotFound)
}

func TestTransferTargetUnactivated(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svcs := setupServices(t, db)

	sender := testutil.SeedTestUser(t, db, "act-s@test.com", "Ac", "Tive")
	recipient := testutil.SeedTestUser(t, db, "act-r@test.com", "Dor", "Mant")
	senderWallet := testutil.SeedTestWallet(t, db, sender.ID, "RUPEE", "5")
	recipientWallet := testutil.SeedTestWallet(t, db, recipient.ID, "", "0")

	_, _, err := svcs.wallets.Transfer(context.Background(), dec("1"), sender.ID, recipientWallet.ID)
	require.ErrorIs(t, err, domain.ErrNotActivated)
	assert.True(t, testutil.GetWalletBalance(t, db, senderWallet.ID).Equal(dec("5")))
}

func TestListTransactionsForUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svcs := setupServices(t, db)
	ctx := context.Background()

	alice := testutil.SeedTestUser(t, db, "alice@test.com", "Alice", "A")
	bob := testutil.SeedTestUser(t, db, "bob@test.com", "Bob", "B")
	testutil.SeedTestWallet(t, db, alice.ID, "RUPEE", "0")
	bobWallet := testutil.SeedTestWallet(t, db, bob.ID, "YEN", "0")

	_, _, err := svcs.wallets.Deposit(ctx, dec("5"), alice.ID)
	require.NoError(t, err)
	_, _, err = svcs.wallets.Withdraw(ctx, dec("1"), alice.ID)
	require.NoError(t, err)
	_, _, err = svcs.wallets.Transfer(ctx, dec("2"), alice.ID, bobWallet.ID)
	require.NoError(t, err)

	txns, err := svcs.transactions.ListForUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, txns, 3)

	// Recorded order is preserved.
	assert.Equal(t, domain.KindDeposit, txns[0].Kind)
	assert.Equal(t, domain.KindWithdraw, txns[1].Kind)
	assert.Equal(t, domain.KindTransfer, txns[2].Kind)

	// Bob sees the transfer he received, and only that.
	bobTxns, err := svcs.transactions.ListForUser(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, bobTxns, 1)
	assert.Equal(t, domain.KindTransfer, bobTxns[0].Kind)
	assert.Equal(t, bobWallet.ID, bobTxns[0].ToWalletID)
}

func TestListTransactionsUnactivatedWallet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svcs := setupServices(t, db)

	user := testutil.SeedTestUser(t, db, "quiet@test.com", "No", "History")
	testutil.SeedTestWallet(t, db, user.ID, "", "0")

	_, err := svcs.transactions.ListForUser(context.Background(), user.ID)
	require.ErrorIs(t, err, domain.ErrNotActivated)
}

func TestConcurrentDepositsSerialize(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svcs := setupServices(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "busy@test.com", "Bu", "Sy")
	wallet := testutil.SeedTestWallet(t, db, user.ID, "DOLLAR", "0")

	const workers = 10
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, errs[i] = svcs.wallets.Deposit(ctx, dec("1"), user.ID)
		}()
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "worker %d", i)
	}

	assert.True(t, testutil.GetWalletBalance(t, db, wallet.ID).Equal(dec("10")))
	assert.Equal(t, workers, testutil.CountTransactions(t, db, wallet.ID))
}
