package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hazadus/taraneem/internal/backup"
	"github.com/hazadus/taraneem/internal/s3"
	"github.com/hazadus/taraneem/internal/utils"
)

// createBackupCommand создает команду backup с привязкой к экземпляру приложения
func (app *Application) createBackupCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Upload the library to S3",
		Long:  `Upload all library files (track records, audio, covers) to the configured S3 bucket.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.backupLibrary(ctx)
		},
	}
}

func (app *Application) backupLibrary(ctx context.Context) error {
	if app.Config.AwsBucketName == "" {
		return fmt.Errorf("выгрузка не настроена: укажите aws_bucket_name в %s", defaultConfigPath)
	}

	uploader, err := s3.NewUploader(&s3.Config{
		Region:     app.Config.AwsRegion,
		AccessKey:  app.Config.AwsAccessKey,
		SecretKey:  app.Config.AwsSecretKey,
		Endpoint:   app.Config.AwsEndpoint,
		BucketName: app.Config.AwsBucketName,
	})
	if err != nil {
		return err
	}

	fmt.Printf("☁️  Выгружаем библиотеку в бакет %s...\n", app.Config.AwsBucketName)

	service := backup.NewService(uploader, "taraneem")
	result, err := service.Run(ctx, app.Config.LibraryDir, func(path string) {
		fmt.Printf("   ⬆️  %s\n", path)
	})
	if err != nil {
		return fmt.Errorf("ошибка выгрузки библиотеки: %w", err)
	}

	fmt.Printf("\n✅ Выгружено файлов: %d (%s)\n", result.Files, utils.FormatFileSize(result.Bytes))
	return nil
}
