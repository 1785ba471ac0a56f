// Package sqlinline holds every SQL statement executed by the service. Each
// statement begins with a `--sql <uuid>` audit marker consumed by
// infra.SQLRunner; internal/tools/sqllint enforces the convention.
package sqlinline

// provider_task_id, result_location and error_message stay NULL until the
// pipeline fills them; reads coalesce them so scans always see text.
const videoJobColumns = `id, user_id, chat_id, related_request_id, provider, model_id,
       coalesce(provider_task_id, '') as provider_task_id, status, prompt, input_params,
       coalesce(result_location, '') as result_location,
       coalesce(error_message, '') as error_message,
       tokens_cost, attempt_count, max_attempts,
       started_processing_at, completed_at, expires_at, created_at, updated_at`

const QInsertVideoJob = `--sql c48427c7-bb8b-498a-a143-caf3403a5cde
insert into video_jobs (
    id, user_id, chat_id, related_request_id, provider, model_id,
    status, prompt, input_params, tokens_cost, attempt_count, max_attempts, expires_at,
    created_at, updated_at
)
values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, $11, $12, $13, $14);
`

const QSelectVideoJob = `--sql 4fca0a42-d65d-494c-8e58-1cba0aa4204d
select ` + videoJobColumns + `
from video_jobs
where id = $1;
`

const QSelectEligibleJobs = `--sql 58b9678d-cdd6-406b-9bd4-7a9180c95237
select ` + videoJobColumns + `
from video_jobs
where status = $1
  and expires_at > $2
order by created_at asc
limit $3;
`

// Conditional status transition. Zero rows means another worker won the claim.
const QClaimJobTransition = `--sql f6d42fdc-9115-4ee2-9a30-2cf29861d6f2
update video_jobs
set status = $3, updated_at = now()
where id = $1 and status = $2
returning ` + videoJobColumns + `;
`

const QRecordJobSubmission = `--sql 419a6029-ed23-497e-be0b-da3ea8acce76
update video_jobs
set provider_task_id = $2,
    started_processing_at = coalesce(started_processing_at, now()),
    updated_at = now()
where id = $1;
`

const QMarkJobCompleted = `--sql 24a01475-2e81-47e5-a18d-d01330f2e980
update video_jobs
set status = 'completed',
    result_location = $2,
    completed_at = now(),
    updated_at = now()
where id = $1 and status = 'processing';
`

const QMarkJobFailed = `--sql 00c2ad8d-53d7-48dc-b17f-8bc344c876ac
update video_jobs
set status = 'failed',
    error_message = $2,
    completed_at = now(),
    updated_at = now()
where id = $1 and status in ('pending', 'processing', 'timeout_waiting');
`

const QMarkJobTimeoutWaiting = `--sql d55e9e5b-eb5c-406c-910e-ed978115ff20
update video_jobs
set status = 'timeout_waiting', updated_at = now()
where id = $1 and status = 'processing';
`

const QIncrementJobAttempt = `--sql d5a9b1ea-8b7e-4014-8d5a-3e50c3612f87
update video_jobs
set attempt_count = attempt_count + 1, updated_at = now()
where id = $1 and attempt_count < max_attempts
returning attempt_count, max_attempts;
`

const QExpireStaleJobs = `--sql 7d8895d5-3b69-4993-87b5-d5145bb1b42e
update video_jobs
set status = 'failed',
    error_message = $2,
    completed_at = now(),
    updated_at = now()
where status in ('pending', 'processing', 'timeout_waiting')
  and expires_at < $1
returning id, chat_id;
`

// Jobs abandoned mid-processing by a crashed worker: resume polling when a
// provider task id exists, otherwise requeue for a fresh submission.
const QReclaimStuckJobs = `--sql 67db1a95-7634-4d3b-be08-5a29afa22186
update video_jobs
set status = case
        when coalesce(provider_task_id, '') = '' then 'pending'
        else 'timeout_waiting'
    end,
    updated_at = now()
where status = 'processing'
  and updated_at < $1;
`
