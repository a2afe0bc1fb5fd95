//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/Kilat-Pet-Delivery/service-stay/internal/application"
	bookingDomain "github.com/Kilat-Pet-Delivery/service-stay/internal/domain/booking"
	stayEvents "github.com/Kilat-Pet-Delivery/service-stay/internal/events"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/platform/database"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/platform/kafka"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/proto/events"
	"github.com/Kilat-Pet-Delivery/service-stay/internal/repository"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB      *gorm.DB
	Cleanup func()
}

// stayStack holds wired-up stay service components on the Postgres store.
type stayStack struct {
	Properties      *application.PropertyService
	Bookings        *application.BookingService
	Payments        *application.PaymentService
	Reviews         *application.ReviewService
	Transactor      *repository.GormTransactor
	CleanupProducer func()
}

// setupPostgres starts a PostgreSQL container and applies the embedded migrations.
func setupPostgres(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_stay",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=test password=test dbname=test_stay sslmode=disable", pgHost, pgPort.Port())
	dbURL := fmt.Sprintf("postgres://test:test@%s/test_stay?sslmode=disable", net.JoinHostPort(pgHost, pgPort.Port()))

	// Poll until GORM can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = database.Connect(dsn, logger)
		return err == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, database.RunMigrations(dbURL, repository.MigrationsFS, repository.MigrationsDir, logger))

	return &testInfra{
		DB: db,
		Cleanup: func() {
			if err := pgContainer.Terminate(ctx); err != nil {
				t.Logf("failed to terminate PostgreSQL container: %v", err)
			}
		},
	}
}

// setupKafka starts a Kafka container and pre-creates the stay topics.
func setupKafka(t *testing.T) ([]string, func()) {
	t.Helper()
	ctx := context.Background()

	// confluent-local supports KRaft natively.
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	createTopics(t, brokers,
		events.TopicPropertyEvents,
		events.TopicBookingEvents,
		events.TopicPaymentEvents,
		events.TopicReviewEvents,
		events.TopicPaymentGateway,
	)

	return brokers, func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
	}
}

// setupStayStack wires the services on the GORM transactor. A nil broker
// list publishes nowhere.
func setupStayStack(t *testing.T, db *gorm.DB, brokers []string, policy bookingDomain.OverlapPolicy) *stayStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	var publisher kafka.Publisher = kafka.NopPublisher{}
	cleanup := func() {}
	if len(brokers) > 0 {
		producer := kafka.NewProducer(brokers, logger)
		publisher = producer
		cleanup = func() { _ = producer.Close() }
	}

	tx := repository.NewGormTransactor(db)
	return &stayStack{
		Properties:      application.NewPropertyService(tx, false, publisher, logger),
		Bookings:        application.NewBookingService(tx, policy, publisher, logger),
		Payments:        application.NewPaymentService(tx, publisher, logger),
		Reviews:         application.NewReviewService(tx, publisher, logger),
		Transactor:      tx,
		CleanupProducer: cleanup,
	}
}

func newGatewayConsumer(brokers []string, payments *application.PaymentService) *stayEvents.GatewayEventConsumer {
	logger, _ := zap.NewDevelopment()
	groupID := fmt.Sprintf("test-stay-%s", uuid.New().String()[:8])
	return stayEvents.NewGatewayEventConsumer(brokers, groupID, payments, logger)
}

func bookingRequest(propertyID int64, in, out string) application.CreateBookingRequest {
	return application.CreateBookingRequest{
		PropertyID:   propertyID,
		CheckInDate:  application.MustParseDate(in),
		CheckOutDate: application.MustParseDate(out),
		Guests:       2,
		TotalPrice:   9000,
	}
}

// publishTestEvent publishes a CloudEvent to Kafka.
func publishTestEvent(t *testing.T, brokers []string, topic, source, eventType string, data interface{}) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	producer := kafka.NewProducer(brokers, logger)
	defer func() { _ = producer.Close() }()

	ce, err := kafka.NewCloudEvent(source, eventType, data)
	require.NoError(t, err, "failed to create cloud event")

	err = producer.PublishEvent(context.Background(), topic, ce)
	require.NoError(t, err, "failed to publish event")
}

// waitForPaymentStatus polls the bookings table until the payment status matches.
func waitForPaymentStatus(t *testing.T, db *gorm.DB, bookingID int64, expected string, timeout time.Duration) repository.BookingModel {
	t.Helper()
	var result repository.BookingModel
	require.Eventually(t, func() bool {
		var model repository.BookingModel
		if err := db.Where("id = ?", bookingID).First(&model).Error; err != nil {
			return false
		}
		if model.PaymentStatus == expected {
			result = model
			return true
		}
		return false
	}, timeout, 200*time.Millisecond, "booking payment status did not become %s", expected)
	return result
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
