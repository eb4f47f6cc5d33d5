package cmd

import (
	"context"
	"log/slog"

	httpin "flowershop/internal/adapters/in/http"
	"flowershop/internal/adapters/out/botapi"
	"flowershop/internal/adapters/out/kafka"
	"flowershop/internal/adapters/out/postgres"
	"flowershop/internal/adapters/out/roster"
	"flowershop/internal/adapters/out/shopapi"
	"flowershop/internal/core/application/usecases/commands"
	"flowershop/internal/core/application/usecases/queries"
	"flowershop/internal/core/ports"
	"flowershop/internal/jobs"
	"flowershop/internal/pkg/telemetry"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CompositionRoot owns the process-wide collaborators: the database, the
// roster, the notification dispatcher and the event publisher. Handlers are
// cheap values built on demand from them.
type CompositionRoot struct {
	cfg        Config
	gormDB     *gorm.DB
	uowFactory *postgres.GormUnitOfWorkFactory
	logger     *slog.Logger
	metrics    *telemetry.Metrics

	shop      *shopapi.Client
	roster    ports.Roster
	notifier  *botapi.Dispatcher
	publisher *kafka.Publisher
	redis     *redis.Client
}

// NewCompositionRoot builds the long-lived collaborators from cfg. Optional
// integrations fall back to local stand-ins: without BOT_TOKEN messages are
// logged, without KAFKA_HOST events are not published.
func NewCompositionRoot(ctx context.Context, cfg Config, gormDB *gorm.DB, logger *slog.Logger) (*CompositionRoot, error) {
	metrics, err := telemetry.NewMetrics()
	if err != nil {
		return nil, errors.Wrap(err, "create metrics")
	}

	c := &CompositionRoot{
		cfg:     cfg,
		gormDB:  gormDB,
		logger:  logger,
		metrics: metrics,
		shop:    shopapi.NewClient(shopapi.Config{BaseURL: cfg.ShopAPIURL, APIKey: cfg.ShopAPIKey}),
	}

	switch cfg.RosterBackend {
	case RosterRedis:
		c.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err = c.redis.Ping(ctx).Err(); err != nil {
			_ = c.redis.Close()
			return nil, errors.Wrapf(err, "connect to redis at %s", cfg.RedisAddr)
		}
		c.roster = roster.NewRedisRoster(c.redis, cfg.RedisPrefix)
	default:
		c.roster = roster.NewMemoryRoster()
	}

	var sender ports.Notifier = logNotifier{logger: logger}
	if cfg.BotToken != "" {
		sender = botapi.NewClient(botapi.Config{BaseURL: cfg.BotAPIURL, Token: cfg.BotToken})
	}
	c.notifier = botapi.NewDispatcher(sender, cfg.NotifyBuffer, logger)

	var publisher ports.EventPublisher
	if brokers := cfg.KafkaBrokers(); len(brokers) > 0 {
		c.publisher = kafka.NewPublisher(kafka.Config{
			Brokers:  brokers,
			Topic:    cfg.KafkaOrderChangedTopic,
			Producer: "flowershop",
		}, logger)
		publisher = c.publisher
	}
	c.uowFactory = postgres.NewGormUnitOfWorkFactory(gormDB, publisher, logger)

	return c, nil
}

// Close flushes queued notifications and events and releases connections.
func (c *CompositionRoot) Close() error {
	c.notifier.Close()
	var err error
	if c.publisher != nil {
		err = c.publisher.Close()
	}
	if c.redis != nil {
		if rErr := c.redis.Close(); rErr != nil && err == nil {
			err = rErr
		}
	}
	return err
}

// uow adapts the Gorm factory to the order use cases.
func (c *CompositionRoot) uow() commands.UoWFactory {
	return FuncUoWFactory(func() commands.UoW { return c.uowFactory.Create() })
}

func (c *CompositionRoot) taskUoW() commands.TaskUoWFactory {
	return FuncTaskUoWFactory(func() commands.TaskUoW { return c.uowFactory.Create() })
}

func (c *CompositionRoot) stockUoW() commands.StockUoWFactory {
	return FuncStockUoWFactory(func() commands.StockUoW { return c.uowFactory.Create() })
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.uow(), c.shop, c.shop, c.logger)
}

func (c *CompositionRoot) CreateTransitionOrderStatusCommandHandler() commands.TransitionOrderStatusCommandHandler {
	return commands.NewTransitionOrderStatusCommandHandler(c.uow(), c.shop, c.shop, c.logger)
}

func (c *CompositionRoot) CreateReportIssueCommandHandler() commands.ReportIssueCommandHandler {
	return commands.NewReportIssueCommandHandler(c.uow(), c.shop, c.notifier, c.cfg.ManagerChannel, c.logger)
}

func (c *CompositionRoot) CreateCreateTasksFromOrderCommandHandler() commands.CreateTasksFromOrderCommandHandler {
	return commands.NewCreateTasksFromOrderCommandHandler(c.uow(), c.shop)
}

func (c *CompositionRoot) CreateAssignTaskCommandHandler() commands.AssignTaskCommandHandler {
	return commands.NewAssignTaskCommandHandler(c.taskUoW(), c.roster, c.notifier, c.logger)
}

func (c *CompositionRoot) CreateStartTaskCommandHandler() commands.StartTaskCommandHandler {
	return commands.NewStartTaskCommandHandler(c.taskUoW())
}

func (c *CompositionRoot) CreateCompleteTaskCommandHandler() commands.CompleteTaskCommandHandler {
	return commands.NewCompleteTaskCommandHandler(c.taskUoW())
}

func (c *CompositionRoot) CreateQualityCheckCommandHandler() commands.QualityCheckCommandHandler {
	return commands.NewQualityCheckCommandHandler(c.uow(), c.shop, c.logger)
}

func (c *CompositionRoot) CreateCancelTaskCommandHandler() commands.CancelTaskCommandHandler {
	return commands.NewCancelTaskCommandHandler(c.uow(), c.shop, c.logger)
}

func (c *CompositionRoot) CreateGetNextTaskForFloristCommandHandler() commands.GetNextTaskForFloristCommandHandler {
	return commands.NewGetNextTaskForFloristCommandHandler(c.taskUoW(), c.roster, c.notifier, c.logger)
}

func (c *CompositionRoot) CreateDistributePendingTasksCommandHandler() commands.DistributePendingTasksCommandHandler {
	return commands.NewDistributePendingTasksCommandHandler(c.taskUoW(), c.roster, c.notifier, c.logger)
}

func (c *CompositionRoot) CreateCheckAndUpdateOverdueTasksCommandHandler() commands.CheckAndUpdateOverdueTasksCommandHandler {
	return commands.NewCheckAndUpdateOverdueTasksCommandHandler(c.taskUoW())
}

func (c *CompositionRoot) CreateReceiveStockCommandHandler() commands.ReceiveStockCommandHandler {
	return commands.NewReceiveStockCommandHandler(c.stockUoW())
}

func (c *CompositionRoot) CreateAdjustStockCommandHandler() commands.AdjustStockCommandHandler {
	return commands.NewAdjustStockCommandHandler(c.stockUoW())
}

func (c *CompositionRoot) CreateRosterCommandHandler() commands.RosterCommandHandler {
	return commands.NewRosterCommandHandler(c.roster)
}

func (c *CompositionRoot) CreateGetQueueStatsQueryHandler() queries.GetQueueStatsQueryHandler {
	return queries.NewGetQueueStatsQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetFloristStatsQueryHandler() queries.GetFloristStatsQueryHandler {
	return queries.NewGetFloristStatsQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateListHistoryQueryHandler() queries.ListHistoryQueryHandler {
	return queries.NewListHistoryQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateListLotMovementsQueryHandler() queries.ListLotMovementsQueryHandler {
	return queries.NewListLotMovementsQueryHandler(c.gormDB)
}

// CreateTaskDistributionJob runs DistributePendingTasks on the distribution schedule.
func (c *CompositionRoot) CreateTaskDistributionJob() *jobs.TaskDistributionJob {
	return jobs.NewTaskDistributionJob(c.CreateDistributePendingTasksCommandHandler(),
		c.cfg.DistributionSchedule, c.metrics, c.logger)
}

// CreateOverdueEscalationJob runs CheckAndUpdateOverdueTasks on the escalation schedule.
func (c *CompositionRoot) CreateOverdueEscalationJob() *jobs.OverdueEscalationJob {
	return jobs.NewOverdueEscalationJob(c.CreateCheckAndUpdateOverdueTasksCommandHandler(),
		c.cfg.EscalationSchedule, c.metrics, c.logger)
}

// CreateJobManager groups both background jobs so serve can start and stop them together.
func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(c.CreateTaskDistributionJob(), c.CreateOverdueEscalationJob())
}

// CreateEcho wires every handler into the HTTP server.
func (c *CompositionRoot) CreateEcho() (*echo.Echo, error) {
	server := httpin.NewServer(httpin.Handlers{
		CreateOrder:            c.CreateCreateOrderCommandHandler(),
		TransitionOrderStatus:  c.CreateTransitionOrderStatusCommandHandler(),
		ReportIssue:            c.CreateReportIssueCommandHandler(),
		CreateTasksFromOrder:   c.CreateCreateTasksFromOrderCommandHandler(),
		AssignTask:             c.CreateAssignTaskCommandHandler(),
		StartTask:              c.CreateStartTaskCommandHandler(),
		CompleteTask:           c.CreateCompleteTaskCommandHandler(),
		QualityCheck:           c.CreateQualityCheckCommandHandler(),
		CancelTask:             c.CreateCancelTaskCommandHandler(),
		GetNextTaskForFlorist:  c.CreateGetNextTaskForFloristCommandHandler(),
		DistributePendingTasks: c.CreateDistributePendingTasksCommandHandler(),
		CheckOverdueTasks:      c.CreateCheckAndUpdateOverdueTasksCommandHandler(),
		ReceiveStock:           c.CreateReceiveStockCommandHandler(),
		AdjustStock:            c.CreateAdjustStockCommandHandler(),
		Roster:                 c.CreateRosterCommandHandler(),
		GetQueueStats:          c.CreateGetQueueStatsQueryHandler(),
		GetFloristStats:        c.CreateGetFloristStatsQueryHandler(),
		ListHistory:            c.CreateListHistoryQueryHandler(),
		ListLotMovements:       c.CreateListLotMovementsQueryHandler(),
	}, c.metrics, c.logger)
	return httpin.NewEcho(server, c.logger)
}

// FuncUoWFactory turns a function into a commands.UoWFactory.
type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}

// FuncTaskUoWFactory turns a function into a commands.TaskUoWFactory.
type FuncTaskUoWFactory func() commands.TaskUoW

func (f FuncTaskUoWFactory) Create() commands.TaskUoW {
	return f()
}

// FuncStockUoWFactory turns a function into a commands.StockUoWFactory.
type FuncStockUoWFactory func() commands.StockUoW

func (f FuncStockUoWFactory) Create() commands.StockUoW {
	return f()
}

// logNotifier stands in for the bot when no token is configured.
type logNotifier struct {
	logger *slog.Logger
}

// Notify writes the message to the log at info level.
func (n logNotifier) Notify(ctx context.Context, channelID string, message string) error {
	n.logger.InfoContext(ctx, "notification", "channel", channelID, "message", message)
	return nil
}
