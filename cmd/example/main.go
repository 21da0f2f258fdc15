package main

import (
	"context"
	"fmt"
	"os"
	"ppm-client/internal/app/config"
	"ppm-client/internal/app/drivers/logger"
	"ppm-client/internal/app/services/consents"
	"ppm-client/internal/app/services/enrollments"
	"ppm-client/internal/app/services/fhir"
	"ppm-client/internal/app/services/participants"
	"ppm-client/internal/app/services/pointsofcare"
	"ppm-client/internal/app/services/questionnaires"

	"go.uber.org/zap"
)

// Version sets the default build version
var Version = "develop"

// Tag sets the default latest commit tag
var Tag = "0.0.1-rc"

func main() {
	driverConfig := config.NewDriverConfig()
	internalConfig := config.NewInternalConfig()

	log, err := logger.NewZapLogger(driverConfig, internalConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting example",
		zap.String("version", Version),
		zap.String("tag", Tag),
	)

	fhirClient := fhir.NewClient(internalConfig, log)

	questionnaireService := questionnaires.NewService(log)
	consentService := consents.NewService(log, internalConfig)
	participantService := participants.NewService(fhirClient, questionnaireService, consentService, log, internalConfig)
	enrollmentService := enrollments.NewService(fhirClient, log)
	pointOfCareService := pointsofcare.NewService(fhirClient, log)

	if len(os.Args) < 2 {
		fmt.Println("usage: example <patient-email-or-id>")
		os.Exit(2)
	}
	patient := os.Args[1]

	ctx := context.Background()

	participant, err := participantService.QueryParticipant(ctx, patient)
	if err != nil {
		log.Fatal("error querying participant", zap.Error(err))
	}
	if participant == nil {
		fmt.Println("no participant found")
		return
	}

	fmt.Printf("Participant: %s %s <%s>\n", participant.Firstname, participant.Lastname, participant.Email)
	fmt.Printf("Study: %s (registered %s)\n", participant.Study, participant.DateRegistered)
	fmt.Printf("Enrollment: %s\n", participant.Enrollment)

	flag, err := enrollmentService.QueryEnrollmentFlag(ctx, participant.FHIRID)
	if err != nil {
		log.Fatal("error querying enrollment flag", zap.Error(err))
	}
	if flag != nil {
		fmt.Printf("Flag status: %s\n", flag.Status)
	}

	names, err := pointOfCareService.GetList(ctx, participant.FHIRID)
	if err != nil {
		log.Fatal("error querying points of care", zap.Error(err))
	}
	for _, name := range names {
		fmt.Printf("Point of care: %s\n", name)
	}
}
