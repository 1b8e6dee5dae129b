// seed inserts development sample submissions for local testing.
// Idempotent: skips inserts if any contact or quote already exists.
package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"codebrick-site/backend/internal/config"
	"codebrick-site/backend/internal/db"
	"codebrick-site/backend/internal/db/schema"
	"codebrick-site/backend/internal/logging"
	"codebrick-site/backend/internal/submission/domain"
	"codebrick-site/backend/internal/submission/repository"
)

var sampleContacts = []domain.ContactMessage{
	{Name: "Thandi Mokoena", Email: "thandi@example.com", Message: "Do you do bathroom renovations in Soweto?"},
	{Name: "Pieter van Wyk", Email: "pieter@example.com", Message: "Please call me about a boundary wall."},
}

var sampleQuotes = []domain.QuoteRequest{
	{
		Name: "Lerato Dlamini", Email: "lerato@example.com", Phone: "0821234567",
		ProjectType: "Residential", Location: "Johannesburg",
		SiteStatus: "Vacant land", ProjectSize: "180 m2", Urgency: "Within 3 months",
		HireStatus: "Comparing quotes", Timeline: "6 months",
		Description: "Three-bedroom house with a double garage.",
	},
	{
		Name: "Sipho Nkosi", Email: "sipho@example.com", Phone: "0739876543",
		ProjectType: "Commercial", Location: "Pretoria",
	},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config")
	}
	log := logging.Configure(cfg.LogLevel, cfg.LogFormat)
	ctx := context.Background()

	conn, err := db.Open(cfg.DatabasePath)
	if err != nil {
		log.WithError(err).Fatal("db")
	}
	defer conn.Close()
	if err := schema.Ensure(ctx, conn, cfg.DatabasePath, log); err != nil {
		log.WithError(err).Fatal("schema")
	}

	repo := repository.NewSQLiteRepository(conn)
	contacts, err := repo.CountContacts(ctx)
	if err != nil {
		log.WithError(err).Fatal("seed check")
	}
	quotes, err := repo.CountQuotes(ctx)
	if err != nil {
		log.WithError(err).Fatal("seed check")
	}
	if contacts > 0 || quotes > 0 {
		log.WithFields(logrus.Fields{"contacts": contacts, "quotes": quotes}).Info("Seed already applied (submissions exist). Skipping.")
		return
	}

	for i := range sampleContacts {
		if _, err := repo.InsertContact(ctx, &sampleContacts[i]); err != nil {
			log.WithError(err).Fatal("create contact")
		}
	}
	for i := range sampleQuotes {
		if _, err := repo.InsertQuote(ctx, &sampleQuotes[i]); err != nil {
			log.WithError(err).Fatal("create quote")
		}
	}
	log.WithFields(logrus.Fields{
		"contacts": len(sampleContacts),
		"quotes":   len(sampleQuotes),
	}).Info("Seed complete.")
}
