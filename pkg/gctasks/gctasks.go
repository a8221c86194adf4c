package gctasks

import (
	"context"
	"fmt"
	"time"

	cloudtasks "cloud.google.com/go/cloudtasks/apiv2"
	"cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Client schedules deferred HTTP callbacks through Google Cloud Tasks. The
// registration engine uses it to call itself back when a hold's payment
// window runs out.
type Client interface {
	CreateQueue(id string) error
	CreateTask(queueID string, request Request) error
	DeferCreateTaskInDuration(queueID string, request Request, duration time.Duration) error
	DeferCreateTaskInTime(queueID string, request Request, schedule time.Time) error
	Close() error
}

const locationID = "us-central1"

type Request struct {
	URL    string
	Method cloudtaskspb.HttpMethod
	Header map[string]string
	Body   []byte
}

type tasksClient struct {
	projectID string
	logger    *logrus.Logger
	client    *cloudtasks.Client
}

func NewGCTasks(logger *logrus.Logger, projectID string, credsJSON []byte) Client {
	c, err := cloudtasks.NewClient(context.Background(), option.WithCredentialsJSON(credsJSON))
	if err != nil {
		logger.WithField("object", "gctasks").Error(err)
		return nil
	}

	return &tasksClient{
		logger:    logger,
		client:    c,
		projectID: projectID,
	}
}

func (tc *tasksClient) Close() error {
	return tc.client.Close()
}

func (tc *tasksClient) queuePath(queueID string) string {
	return fmt.Sprintf("projects/%s/locations/%s/queues/%s", tc.projectID, locationID, queueID)
}

func (tc *tasksClient) CreateQueue(id string) error {
	parent := fmt.Sprintf("projects/%s/locations/%s", tc.projectID, locationID)

	_, err := tc.client.CreateQueue(context.Background(), &cloudtaskspb.CreateQueueRequest{
		Parent: parent,
		Queue: &cloudtaskspb.Queue{
			Name: fmt.Sprintf("%s/queues/%s", parent, id),
		},
	})
	if err != nil {
		tc.logger.WithField("object", "gctasks").Error(err)
		return err
	}

	return nil
}

func (tc *tasksClient) createTask(queueID string, request Request, schedule *timestamppb.Timestamp) error {
	task := &cloudtaskspb.Task{
		MessageType: &cloudtaskspb.Task_HttpRequest{
			HttpRequest: &cloudtaskspb.HttpRequest{
				Url:        request.URL,
				HttpMethod: request.Method,
				Headers:    request.Header,
				Body:       request.Body,
			},
		},
		ScheduleTime: schedule,
	}

	_, err := tc.client.CreateTask(context.Background(), &cloudtaskspb.CreateTaskRequest{
		Parent: tc.queuePath(queueID),
		Task:   task,
	})
	if err != nil {
		tc.logger.WithFields(logrus.Fields{
			"object":  "gctasks",
			"queueId": queueID,
		}).Error(err)
		return err
	}

	return nil
}

func (tc *tasksClient) CreateTask(queueID string, request Request) error {
	return tc.createTask(queueID, request, nil)
}

func (tc *tasksClient) DeferCreateTaskInDuration(queueID string, request Request, duration time.Duration) error {
	return tc.createTask(queueID, request, timestamppb.New(time.Now().Add(duration)))
}

func (tc *tasksClient) DeferCreateTaskInTime(queueID string, request Request, schedule time.Time) error {
	return tc.createTask(queueID, request, timestamppb.New(schedule))
}
