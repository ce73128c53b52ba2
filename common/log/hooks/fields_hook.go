package hooks

import (
	"github.com/sirupsen/logrus"
)

type fieldsHook struct {
	fields logrus.Fields
}

// NewFieldsHook returns a hook that adds fields to every entry that doesn't
// already set them, ex: the id of the current run.
func NewFieldsHook(fields logrus.Fields) logrus.Hook {
	return fieldsHook{fields: fields}
}

func (hook fieldsHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (hook fieldsHook) Fire(entry *logrus.Entry) error {
	for k, v := range hook.fields {
		if _, ok := entry.Data[k]; !ok {
			entry.Data[k] = v
		}
	}
	return nil
}
