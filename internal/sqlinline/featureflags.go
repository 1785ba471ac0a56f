package sqlinline

const QSelectFeatureFlag = `--sql 790c11c1-c9eb-4d4f-9f4f-2fd3533b290c
select enabled
from feature_flags
where key = $1;
`
