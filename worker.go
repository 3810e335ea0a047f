package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/muhammadolammi/careerprep/internal/config"
	"github.com/muhammadolammi/careerprep/internal/database"
	"github.com/muhammadolammi/careerprep/internal/tools"
	"github.com/muhammadolammi/careerprep/internal/worker"
	"github.com/streadway/amqp"
)

// WorkerCmd consumes roadmap requests from RabbitMQ.
type WorkerCmd struct {
	Workers int `short:"n" long:"workers" default:"3" description:"number of concurrent consumers"`
}

func (c *WorkerCmd) Execute(_ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadWorker()
	if err != nil {
		return err
	}

	db, err := sql.Open("postgres", cfg.DBURL)
	if err != nil {
		return fmt.Errorf("error opening db: %w", err)
	}
	defer db.Close()

	awsConfig, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.R2.AccessKey, cfg.R2.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return fmt.Errorf("error creating aws config: %w", err)
	}

	p, err := buildPipeline(ctx, cfg.Config)
	if err != nil {
		return err
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("error connecting to RabbitMQ: %w", err)
	}
	defer conn.Close()
	publisher := &worker.AMQPPublisher{Conn: conn}
	if err := publisher.DeclareExchange(); err != nil {
		return fmt.Errorf("failed to declare updates exchange: %w", err)
	}

	w := &worker.Worker{
		Store:            database.New(db),
		Publisher:        publisher,
		Runner:           p,
		Objects:          tools.NewR2Client(awsConfig, cfg.R2.AccountID),
		Bucket:           cfg.R2.Bucket,
		DownloadAttempts: 3,
		SaveAttempts:     3,
		RetryDelay:       500 * time.Millisecond,
	}
	slog.Info("starting consumer pool", "workers", c.Workers)
	return w.StartConsumerPool(ctx, cfg.RabbitMQURL, c.Workers)
}
