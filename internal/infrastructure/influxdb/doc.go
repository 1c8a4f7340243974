// Package influxdb stores NeuroBot time series in InfluxDB v2.
//
// It wraps the official influxdb-client-go v2 library. Writes go through
// the non-blocking WriteAPI and are batched; failures arrive through the
// SetOnError callback.
//
// # Measurements
//
//	eeg_samples   field value           one point per sample
//	eeg_features  fields mean,std,...   window statistics
//	emotion       field label
//	connection    fields state,attempts
//
// Every point carries a session tag identifying the client run.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB, sessionID)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteSamples(batch, time.Now())
package influxdb
