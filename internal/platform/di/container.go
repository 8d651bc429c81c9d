// internal/platform/di/container.go
package di

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	httpin "storefront/internal/adapters/in/http"
	fsrepo "storefront/internal/adapters/out/firestore"
	"storefront/internal/adapters/out/localstore"
	"storefront/internal/adapters/out/mail"
	"storefront/internal/adapters/out/memory"
	"storefront/internal/adapters/out/search"
	"storefront/internal/application/auth"
	"storefront/internal/application/realtime"
	"storefront/internal/application/store"
	"storefront/internal/application/usecase"
	cartdom "storefront/internal/domain/cart"
	orderdom "storefront/internal/domain/order"
	"storefront/internal/domain/permission"
	productdom "storefront/internal/domain/product"
	"storefront/internal/domain/user"
	wishdom "storefront/internal/domain/wishlist"
	"storefront/internal/infra/config"
	firestoreinfra "storefront/internal/infra/firestore"
	"storefront/internal/infra/logging"
	"storefront/internal/infra/metrics"
	"storefront/internal/infra/secrets"
)

// ========================================
// Container
// ========================================
//
// Container owns every client, repository and usecase of the process.
// Firestore is strict on the firestore backend; Firebase Auth, Secret Manager,
// SendGrid and Kafka are best-effort (warn + continue).
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *metrics.Metrics

	// Clients (owned; Close-managed). Nil when not configured.
	Firestore    *firestoreinfra.ClientWrapper
	FirebaseAuth *fbauth.Client
	Secrets      *secrets.ProviderSM
	Memory       *memory.Store
	Indexer      *search.KafkaIndexer
	LocalStore   *localstore.SQLite

	// Repositories
	Users     user.Reader
	Roles     user.RoleWriter
	Products  productdom.Repository
	Carts     cartdom.Repository
	Wishlists wishdom.Repository
	Orders    orderdom.Repository

	// Application
	Validator  *auth.SessionValidator
	CartUC     *usecase.CartUsecase
	WishlistUC *usecase.WishlistUsecase
	OrderUC    *usecase.OrderUsecase
	ProductUC  *usecase.ProductUsecase

	// Client-side state
	CartSource   realtime.Source[*cartdom.Cart]
	CartSubs     *realtime.Manager[*cartdom.Cart]
	WishlistSubs *realtime.Manager[*wishdom.Wishlist]
	UserSubs     *realtime.Manager[user.Record]
	Session      *store.Session

	closers []func() error
}

// NewContainer wires the process from cfg.
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("di: config is nil")
	}
	logger = logging.OrNop(logger)
	pricing, err := cfg.Pricing()
	if err != nil {
		return nil, err
	}

	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New("storefront"),
	}

	var (
		cartSrc realtime.Source[*cartdom.Cart]
		wishSrc realtime.Source[*wishdom.Wishlist]
		userSrc realtime.Source[user.Record]
	)

	// 1) System of record
	if cfg.UseMemoryStore() {
		c.Memory = memory.New()
		c.Users, c.Roles = c.Memory.Users(), c.Memory.Users()
		c.Products = c.Memory.Products()
		c.Carts = c.Memory.Carts()
		c.Wishlists = c.Memory.Wishlists()
		c.Orders = c.Memory.Orders()
		cartSrc, wishSrc, userSrc = c.Memory.CartSource(), c.Memory.WishlistSource(), c.Memory.UserSource()
		logger.Warn("using in-process store; data is lost on exit")
	} else {
		projectID := cfg.ProjectID()
		if projectID == "" {
			return nil, errors.New("di: projectID is empty (set FIRESTORE_PROJECT_ID or GCP_PROJECT_ID)")
		}
		fs, err := firestoreinfra.NewClient(ctx, projectID, cfg.CredentialsFile(), logger)
		if err != nil {
			return nil, fmt.Errorf("di: %w", err)
		}
		c.Firestore = fs
		c.closers = append(c.closers, fs.Close)

		users := fsrepo.NewUserRepositoryFS(fs.Client)
		c.Users, c.Roles = users, users
		c.Products = fsrepo.NewProductRepositoryFS(fs.Client)
		c.Carts = fsrepo.NewCartRepositoryFS(fs.Client)
		c.Wishlists = fsrepo.NewWishlistRepositoryFS(fs.Client)
		c.Orders = fsrepo.NewOrderRepositoryFS(fs.Client)
		cartSrc, wishSrc, userSrc = fsrepo.NewCartSource(fs.Client), fsrepo.NewWishlistSource(fs.Client), fsrepo.NewUserSource(fs.Client)
	}

	// 2) Firebase Auth (best-effort)
	if fbProject := cfg.FirebaseProject(); fbProject != "" {
		app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: fbProject}, c.clientOptions()...)
		if err != nil {
			logger.Warn("firebase app init failed", zap.Error(err))
		} else if ac, err := app.Auth(ctx); err != nil {
			logger.Warn("firebase auth init failed", zap.Error(err))
		} else {
			c.FirebaseAuth = ac
		}
	} else {
		logger.Warn("FIREBASE_PROJECT_ID is empty; /api routes will answer 503")
	}

	// 3) Secret Manager (best-effort, only when a secret is referenced)
	if strings.TrimSpace(cfg.SendGridAPIKeySecret) != "" {
		sm, err := secrets.NewProviderSM(ctx, cfg.ProjectID(), c.clientOptions()...)
		if err != nil {
			logger.Warn("secret manager init failed", zap.Error(err))
		} else {
			c.Secrets = sm
			c.closers = append(c.closers, sm.Close)
		}
	}

	// 4) Side-effect sinks
	var notifier usecase.OrderNotifier
	if strings.TrimSpace(cfg.SendGridAPIKey) != "" || strings.TrimSpace(cfg.SendGridAPIKeySecret) != "" {
		var sr mail.SecretResolver
		if c.Secrets != nil {
			sr = c.Secrets
		}
		notifier = mail.NewOrderMailerWithSendGrid(ctx, mail.SendGridSettings{
			APIKey:       cfg.SendGridAPIKey,
			APIKeySecret: cfg.SendGridAPIKeySecret,
			From:         cfg.SendGridFrom,
			FromName:     cfg.SendGridFromName,
		}, sr, logger)
	} else {
		logger.Info("order confirmation mail disabled (no SendGrid key)")
	}

	var indexer productdom.Indexer
	if k := search.NewKafkaIndexer(cfg.KafkaBrokers, cfg.SearchIndexTopic, logger); k != nil {
		c.Indexer = k
		indexer = k
		c.closers = append(c.closers, k.Close)
	} else {
		logger.Info("search index sync disabled (no KAFKA_BROKERS)")
	}

	// 5) Usecases
	cache := auth.NewPermissionCache(cfg.PermissionTTL, time.Now, c.Metrics)
	c.Validator = auth.NewSessionValidator(c.Users, cache, permission.Default, logger)
	c.CartUC = usecase.NewCartUsecase(c.Validator, c.Carts, c.Products, pricing, logger)
	c.WishlistUC = usecase.NewWishlistUsecase(c.Validator, c.Wishlists, c.Products, logger)
	c.ProductUC = usecase.NewProductUsecase(c.Validator, c.Products, indexer, c.Metrics, logger)
	c.OrderUC = usecase.NewOrderUsecase(usecase.OrderDeps{
		Auth:     c.Validator,
		Orders:   c.Orders,
		Products: c.Products,
		Carts:    c.Carts,
		Notifier: notifier,
		Indexer:  indexer,
		Pricing:  pricing,
		Metrics:  c.Metrics,
		Logger:   logger,
	})

	// 6) Subscriptions and client-side stores
	c.CartSource = cartSrc
	c.CartSubs = realtime.NewManager("carts", cartSrc, logger, c.Metrics)
	c.WishlistSubs = realtime.NewManager("wishlists", wishSrc, logger, c.Metrics)
	c.UserSubs = realtime.NewManager("users", userSrc, logger, c.Metrics)
	c.closers = append(c.closers, func() error {
		c.CartSubs.UnsubscribeAll()
		c.WishlistSubs.UnsubscribeAll()
		c.UserSubs.UnsubscribeAll()
		return nil
	})

	var local store.LocalStorage = localstore.NewMemory()
	if p := strings.TrimSpace(cfg.LocalStorePath); p != "" {
		db, err := localstore.Open(p)
		if err != nil {
			logger.Warn("local store unavailable; falling back to memory", zap.String("path", p), zap.Error(err))
		} else {
			c.LocalStore = db
			local = db
			c.closers = append(c.closers, db.Close)
		}
	}
	cartStore := store.NewCartStore(c.CartUC, c.Validator, c.CartSubs, local, pricing, logger)
	wishStore := store.NewWishlistStore(c.WishlistUC, c.Validator, c.WishlistSubs, local, logger)
	c.Session = store.NewSession(c.Validator, c.UserSubs, cartStore, wishStore, logger)

	return c, nil
}

func (c *Container) clientOptions() []option.ClientOption {
	if f := c.Config.CredentialsFile(); f != "" {
		return []option.ClientOption{option.WithCredentialsFile(f)}
	}
	return nil
}

// RouterDeps exposes the HTTP surface dependencies.
func (c *Container) RouterDeps() httpin.RouterDeps {
	deps := httpin.RouterDeps{
		CartUC:        c.CartUC,
		WishlistUC:    c.WishlistUC,
		OrderUC:       c.OrderUC,
		ProductUC:     c.ProductUC,
		Freshness:     c.Validator,
		SessionMaxAge: c.Config.SessionMaxAge,
		Metrics:       c.Metrics.Handler(),
		Logger:        c.Logger,
	}
	// A nil *fbauth.Client must not become a non-nil interface.
	if c.FirebaseAuth != nil {
		deps.Verifier = c.FirebaseAuth
	}
	return deps
}

// Close releases owned clients in reverse order of creation.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
