package codecomments

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codecomments_comments_created_total",
		Help: "Total number of code comments created.",
	})

	commentsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codecomments_comments_deleted_total",
		Help: "Total number of code comments deleted.",
	})
)
