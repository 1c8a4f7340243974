// Package mqtt republishes NeuroBot session events to an MQTT broker.
//
// This package manages:
//   - Connection to the broker with paho's auto-reconnect
//   - Publishing samples, emotion, transcript entries and channel state
//   - An optional inbound chat topic
//   - Last Will and Testament (LWT) for offline detection
//
// # Topics
//
//	neurobot/eeg/samples        sample batch, JSON array
//	neurobot/emotion            emotion display (retained)
//	neurobot/chat               transcript entry
//	neurobot/chat/submit        inbound chat text
//	neurobot/client/status      online/offline (retained, LWT)
//	neurobot/client/connection  backend channel state (retained)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishJSON(client.Topics().Emotion(), display, true)
package mqtt
